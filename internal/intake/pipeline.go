package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"garasiku/internal/util"
	"garasiku/pkg/domain"
	"garasiku/pkg/storage"
	"garasiku/pkg/store"
)

const maxPhotos = 10

// flowSteps is the transition table: the ordered step sequence per flow.
// Both flows share the photos/confirm handlers and the terminal persistence.
var flowSteps = map[domain.FlowName][]domain.Step{
	domain.FlowVehicleIntake: {
		domain.StepPhotos,
		domain.StepConfirm,
	},
	domain.FlowVehicleIntakeGuided: {
		domain.StepBrandModel,
		domain.StepYearColor,
		domain.StepTransmissionKM,
		domain.StepPrice,
		domain.StepPlate,
		domain.StepFeatures,
		domain.StepPhotos,
		domain.StepConfirm,
	},
}

// nextStep returns the step after current in the flow's sequence, or "" at
// the end.
func nextStep(flow domain.FlowName, current domain.Step) domain.Step {
	steps := flowSteps[flow]
	for i, step := range steps {
		if step == current && i+1 < len(steps) {
			return steps[i+1]
		}
	}
	return ""
}

// MediaSaver persists an inbound photo and returns its stored reference.
type MediaSaver interface {
	SaveFromURL(ctx context.Context, tenantID, url string) (string, error)
}

// Pipeline is the conversational intake state machine. One call per inbound
// message; the returned string is the reply, empty meaning "send nothing".
type Pipeline struct {
	conversations store.ConversationStore
	vehicles      store.VehicleStore
	media         MediaSaver
	extractor     *Extractor
	enhancer      *Enhancer
	codes         *CodeGenerator
	locks         *keyedMutex
}

// Config wires the pipeline dependencies.
type Config struct {
	Conversations store.ConversationStore
	Vehicles      store.VehicleStore
	Media         MediaSaver
	Extractor     *Extractor
	Enhancer      *Enhancer
}

// NewPipeline constructs the pipeline.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		conversations: cfg.Conversations,
		vehicles:      cfg.Vehicles,
		media:         cfg.Media,
		extractor:     cfg.Extractor,
		enhancer:      cfg.Enhancer,
		codes:         NewCodeGenerator(cfg.Vehicles),
		locks:         newKeyedMutex(),
	}
}

const (
	cmdCancel      = "batal"
	cmdStartPrefix = "jual"
	cmdDone        = "selesai"
)

// Handle processes one inbound message and returns the reply. All work for a
// given (tenant,user) is serialized; different users run in parallel.
func (p *Pipeline) Handle(ctx context.Context, msg domain.InboundMessage) string {
	unlock := p.locks.lock(msg.TenantID + "/" + msg.User)
	defer unlock()

	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)

	// Cancel wins over everything, including step-specific matching.
	if lower == cmdCancel {
		if err := p.conversations.Clear(ctx, msg.TenantID, msg.User); err != nil {
			slog.Error("clear conversation", "tenant", msg.TenantID, "user", msg.User, "err", err)
		}
		return replyCancelled
	}

	state, found, err := p.conversations.Get(ctx, msg.TenantID, msg.User)
	if err != nil {
		slog.Error("load conversation", "tenant", msg.TenantID, "user", msg.User, "err", err)
		return replySaveFailed
	}
	if !found {
		return p.handleNoSession(ctx, msg, text, lower)
	}

	switch state.Step {
	case domain.StepPhotos:
		return p.handlePhotos(ctx, state, msg, lower)
	case domain.StepConfirm:
		return p.handleConfirm(ctx, state, lower)
	case domain.StepBrandModel, domain.StepYearColor, domain.StepTransmissionKM,
		domain.StepPrice, domain.StepPlate, domain.StepFeatures:
		return p.handleGuidedStep(ctx, state, text)
	default:
		// Unknown step in a stored state: reset rather than strand the user.
		slog.Error("unknown step in stored state", "step", state.Step, "flow", state.Flow)
		_ = p.conversations.Clear(ctx, msg.TenantID, msg.User)
		return replyNoSession
	}
}

// handleNoSession recognizes the start commands. "jual" alone (or "jual
// mobil") opens the guided flow; "jual <text>" runs extraction over the
// whole payload.
func (p *Pipeline) handleNoSession(ctx context.Context, msg domain.InboundMessage, text, lower string) string {
	if lower != cmdStartPrefix && !strings.HasPrefix(lower, cmdStartPrefix+" ") {
		return replyNoSession
	}
	payload := strings.TrimSpace(text[len(cmdStartPrefix):])
	if lowerPayload := strings.ToLower(payload); lowerPayload == "" || lowerPayload == "mobil" {
		return p.startGuided(ctx, msg)
	}
	// "jual mobil Honda Jazz ..." reads the same as "jual Honda Jazz ...".
	if strings.HasPrefix(strings.ToLower(payload), "mobil ") {
		payload = strings.TrimSpace(payload[len("mobil "):])
	}
	return p.startQuick(ctx, msg, payload)
}

func (p *Pipeline) startQuick(ctx context.Context, msg domain.InboundMessage, payload string) string {
	result := p.extractor.Extract(ctx, payload)
	if !result.Success {
		return replyStartFailed(result.Errors)
	}
	state := domain.ConversationState{
		TenantID: msg.TenantID,
		User:     msg.User,
		Flow:     domain.FlowVehicleIntake,
		Step:     domain.StepPhotos,
		Draft:    result.Data,
		Scope:    domain.ScopeAdmin,
	}
	if err := p.conversations.Start(ctx, state); err != nil {
		slog.Error("start conversation", "tenant", msg.TenantID, "user", msg.User, "err", err)
		return replySaveFailed
	}
	slog.Info("intake flow started",
		"tenant", msg.TenantID, "user", msg.User,
		"method", string(result.Method), "confidence", string(result.Confidence))
	return fmt.Sprintf("Data terbaca: %s %s %d, Rp %d.\n\n%s",
		result.Data.Brand, result.Data.Model, result.Data.Year, result.Data.Price, replyPhotoPrompt)
}

func (p *Pipeline) startGuided(ctx context.Context, msg domain.InboundMessage) string {
	draft := domain.VehicleDraft{}
	applyDraftDefaults(&draft)
	state := domain.ConversationState{
		TenantID: msg.TenantID,
		User:     msg.User,
		Flow:     domain.FlowVehicleIntakeGuided,
		Step:     domain.StepBrandModel,
		Draft:    draft,
		Scope:    domain.ScopeAdmin,
	}
	if err := p.conversations.Start(ctx, state); err != nil {
		slog.Error("start conversation", "tenant", msg.TenantID, "user", msg.User, "err", err)
		return replySaveFailed
	}
	return promptBrandModel
}

// handleGuidedStep advances the long flow one field group at a time. Invalid
// input re-prompts without a state change.
func (p *Pipeline) handleGuidedStep(ctx context.Context, state domain.ConversationState, text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	skip := lower == "-" || lower == "skip"

	switch state.Step {
	case domain.StepBrandModel:
		brand, model := parseBrandModel(text, lower)
		if brand == "" {
			return replyNeedBrand
		}
		state.Draft.Brand, state.Draft.Model = brand, model
		return p.advanceGuided(ctx, state, promptYearColor)

	case domain.StepYearColor:
		year := parseYear(lower)
		if year == 0 {
			return replyNeedYear
		}
		state.Draft.Year = year
		if color := parseColor(lower); color != "" {
			state.Draft.Color = color
		}
		return p.advanceGuided(ctx, state, promptTransmissionKM)

	case domain.StepTransmissionKM:
		if !skip {
			if tr := parseTransmission(lower); tr != "" {
				state.Draft.Transmission = tr
			}
			if km := ParseOdometerReply(text); km > 0 {
				state.Draft.Odometer = km
			}
		}
		return p.advanceGuided(ctx, state, promptPrice)

	case domain.StepPrice:
		price := ParsePrice(text)
		if price <= 0 {
			return replyNeedPrice
		}
		state.Draft.Price = price
		return p.advanceGuided(ctx, state, promptPlate)

	case domain.StepPlate:
		if !skip {
			if raw, clean := parsePlate(text); raw != "" {
				state.Draft.Plate, state.Draft.PlateClean = raw, clean
			}
		}
		return p.advanceGuided(ctx, state, promptFeatures)

	case domain.StepFeatures:
		if !skip && strings.TrimSpace(text) != "" {
			for _, part := range strings.Split(text, ",") {
				if f := strings.TrimSpace(part); f != "" {
					state.Draft.Features = append(state.Draft.Features, f)
				}
			}
		}
		return p.advanceGuided(ctx, state, replyPhotoPrompt)
	}
	return replyNoSession
}

func (p *Pipeline) advanceGuided(ctx context.Context, state domain.ConversationState, prompt string) string {
	state.Step = nextStep(state.Flow, state.Step)
	if err := p.conversations.Advance(ctx, state); err != nil {
		slog.Error("advance conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		return replySaveFailed
	}
	return prompt
}

// handlePhotos accepts image attachments and the done/skip commands. Media
// and text are independent signals; a text-only duplicate with no content is
// answered with silence rather than a guess.
func (p *Pipeline) handlePhotos(ctx context.Context, state domain.ConversationState, msg domain.InboundMessage, lower string) string {
	if msg.Media != nil && strings.HasPrefix(msg.Media.Type, "image") {
		return p.collectPhoto(ctx, state, msg)
	}

	switch lower {
	case cmdDone:
		return p.toConfirm(ctx, state)
	case "skip", "-":
		state.Draft.Photos = []string{}
		state.Draft.UnstoredPhotos = 0
		return p.toConfirm(ctx, state)
	case "":
		// Duplicate-looking empty delivery during a bulk photo send.
		return ""
	default:
		return replyPhotoPrompt
	}
}

// collectPhoto stores one attachment and applies the adaptive verbosity
// rules: full acknowledgement on the first photo, a terse count on every
// fifth, silence in between.
func (p *Pipeline) collectPhoto(ctx context.Context, state domain.ConversationState, msg domain.InboundMessage) string {
	if len(state.Draft.Photos)+state.Draft.UnstoredPhotos >= maxPhotos {
		return replyPhotoCount(maxPhotos) + " Maksimal tercapai, ketik \"selesai\"."
	}
	ref, err := p.media.SaveFromURL(ctx, msg.TenantID, msg.Media.URL)
	if errors.Is(err, storage.ErrNoMediaURL) {
		state.Draft.UnstoredPhotos++
		first := !state.Draft.NoURLNotified
		state.Draft.NoURLNotified = true
		if err := p.conversations.Advance(ctx, state); err != nil {
			slog.Error("advance conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		}
		if first {
			return replyPhotoNoURL
		}
		return ""
	}
	if err != nil {
		slog.Warn("photo save failed", "tenant", state.TenantID, "user", state.User, "err", err)
		return replyPhotoRetry
	}
	state.Draft.Photos = append(state.Draft.Photos, ref)
	if err := p.conversations.Advance(ctx, state); err != nil {
		slog.Error("advance conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		return replySaveFailed
	}
	total := len(state.Draft.Photos)
	switch {
	case total == 1:
		return replyPhotoFirst
	case total%5 == 0:
		return replyPhotoCount(total)
	default:
		return ""
	}
}

// toConfirm freezes the photo list, runs the enhancer, and presents the
// summary.
func (p *Pipeline) toConfirm(ctx context.Context, state domain.ConversationState) string {
	enhanced := p.enhancer.Enhance(ctx, state.Draft)
	state.Draft.EnhancedTitle = enhanced.PublicName
	state.Draft.EnhancedDescription = enhanced.Description
	state.Draft.ConditionNotes = enhanced.ConditionNotes
	state.Step = domain.StepConfirm
	if err := p.conversations.Advance(ctx, state); err != nil {
		slog.Error("advance conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		return replySaveFailed
	}
	return buildSummary(state.Draft)
}

func (p *Pipeline) handleConfirm(ctx context.Context, state domain.ConversationState, lower string) string {
	switch lower {
	case "ya", "yes", "y":
		return p.persist(ctx, state)
	case "tidak", "no", "n":
		if err := p.conversations.Clear(ctx, state.TenantID, state.User); err != nil {
			slog.Error("clear conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		}
		return replyDiscarded
	case "":
		return ""
	default:
		return replyConfirmPrompt
	}
}

// persist allocates the display code, writes the record, and always clears
// the conversation, success or not: a stuck session is worse than making the
// user resend. The draft summary goes to the log so an operator can recover
// it after a storage failure.
func (p *Pipeline) persist(ctx context.Context, state domain.ConversationState) string {
	defer func() {
		if err := p.conversations.Clear(ctx, state.TenantID, state.User); err != nil {
			slog.Error("clear conversation", "tenant", state.TenantID, "user", state.User, "err", err)
		}
	}()

	draft := state.Draft
	publicName := draft.EnhancedTitle
	if publicName == "" {
		publicName = strings.TrimSpace(fmt.Sprintf("%s %s %d", draft.Brand, draft.Model, draft.Year))
	}
	description := draft.EnhancedDescription

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := p.codes.Generate(ctx, state.TenantID, draft.Brand, draft.Model)
		if err != nil {
			lastErr = err
			break
		}
		now := time.Now().UTC()
		vehicle := domain.Vehicle{
			ID:           util.NewID(),
			TenantID:     state.TenantID,
			DisplayCode:  code,
			PublicName:   publicName,
			Slug:         util.Slugify(draft.Brand, draft.Model, fmt.Sprintf("%d", draft.Year), strings.TrimPrefix(code, "#")),
			Brand:        draft.Brand,
			Model:        draft.Model,
			Year:         draft.Year,
			Color:        draft.Color,
			Transmission: draft.Transmission,
			Odometer:     draft.Odometer,
			Price:        draft.Price,
			Plate:        draft.PlateClean,
			FuelType:     draft.FuelType,
			Features:     draft.Features,
			Description:  description,
			Notes:        draft.ConditionNotes,
			Photos:       draft.Photos,
			Status:       domain.StatusAvailable,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = p.vehicles.Create(ctx, vehicle)
		if err == nil {
			slog.Info("vehicle persisted",
				"tenant", state.TenantID, "code", code, "slug", vehicle.Slug,
				"photos", len(draft.Photos))
			return replySaved(code, publicName)
		}
		if errors.Is(err, store.ErrCodeTaken) {
			// Lost the race after the existence check; rederive and retry.
			continue
		}
		lastErr = err
		break
	}
	if lastErr == nil {
		lastErr = ErrCodeExhausted
	}
	slog.Error("vehicle persistence failed",
		"tenant", state.TenantID, "user", state.User,
		"brand", draft.Brand, "model", draft.Model, "year", draft.Year,
		"price", draft.Price, "err", lastErr)
	return replySaveFailed
}
