package domain

import "time"

type VehicleStatus string

const (
	StatusAvailable VehicleStatus = "available"
	StatusSold      VehicleStatus = "sold"
	StatusBooking   VehicleStatus = "booking"
	StatusDraft     VehicleStatus = "draft"
	StatusDeleted   VehicleStatus = "deleted"
)

type Transmission string

const (
	TransmissionManual Transmission = "Manual"
	TransmissionMatic  Transmission = "Matic"
)

// Defaults applied when extraction or parsing leaves a field empty.
const (
	DefaultColor    = "Hitam"
	DefaultFuelType = "Bensin"
)

type FlowName string

const (
	FlowVehicleIntake       FlowName = "vehicle_intake"
	FlowVehicleIntakeGuided FlowName = "vehicle_intake_guided"
)

// Step identifies a position inside a flow. Steps are shared between flows
// where the handlers are shared.
type Step string

const (
	StepBrandModel     Step = "brand_model"
	StepYearColor      Step = "year_color"
	StepTransmissionKM Step = "transmission_km"
	StepPrice          Step = "price"
	StepPlate          Step = "plate"
	StepFeatures       Step = "features"
	StepPhotos         Step = "photos"
	StepConfirm        Step = "confirm"
)

type Scope string

const (
	ScopeAdmin   Scope = "admin"
	ScopeGeneric Scope = "generic"
)

// VehicleDraft accumulates listing fields while an intake flow is running.
type VehicleDraft struct {
	Brand        string       `json:"brand"`
	Model        string       `json:"model"`
	Year         int          `json:"year"`
	Color        string       `json:"color"`
	Transmission Transmission `json:"transmission"`
	Odometer     int          `json:"km"`
	Price        int64        `json:"price"`
	Plate        string       `json:"plate"`
	PlateClean   string       `json:"plateClean,omitempty"`
	FuelType     string       `json:"fuelType"`
	Features     []string     `json:"keyFeatures"`
	Notes        string       `json:"notes,omitempty"`

	// Photos holds stored object references. UnstoredPhotos counts attachments
	// that arrived without a retrievable URL; NoURLNotified suppresses repeat
	// notices for those.
	Photos         []string `json:"photos"`
	UnstoredPhotos int      `json:"unstoredPhotos,omitempty"`
	NoURLNotified  bool     `json:"noUrlNotified,omitempty"`

	EnhancedTitle       string `json:"enhancedTitle,omitempty"`
	EnhancedDescription string `json:"enhancedDescription,omitempty"`
	ConditionNotes      string `json:"conditionNotes,omitempty"`
}

// ConversationState is the durable per-(tenant,user) flow record. At most one
// is active per key; starting a new flow replaces the previous one.
type ConversationState struct {
	TenantID  string       `json:"tenantId"`
	User      string       `json:"user"`
	Flow      FlowName     `json:"flow"`
	Step      Step         `json:"step"`
	Draft     VehicleDraft `json:"draft"`
	Scope     Scope        `json:"scope"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Vehicle is the persisted inventory record produced at flow completion.
type Vehicle struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenantId"`
	DisplayCode  string        `json:"displayCode"`
	PublicName   string        `json:"publicName"`
	Slug         string        `json:"slug"`
	Brand        string        `json:"brand"`
	Model        string        `json:"model"`
	Year         int           `json:"year"`
	Color        string        `json:"color"`
	Transmission Transmission  `json:"transmission"`
	Odometer     int           `json:"km"`
	Price        int64         `json:"price"`
	Plate        string        `json:"plate"`
	FuelType     string        `json:"fuelType"`
	Features     []string      `json:"keyFeatures"`
	Description  string        `json:"description"`
	Notes        string        `json:"notes,omitempty"`
	Photos       []string      `json:"photos"`
	Status       VehicleStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// MediaURLUnavailable is the sentinel the transport uses when an attachment
// exists but the gateway could not produce a download URL.
const MediaURLUnavailable = "unavailable"

type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// InboundMessage is one delivery from the message transport. Media and Text
// are independent signals: the same logical photo message may arrive as two
// deliveries in either order.
type InboundMessage struct {
	TenantID string `json:"tenantId"`
	User     string `json:"user"`
	Text     string `json:"text"`
	Media    *Media `json:"media,omitempty"`
}
