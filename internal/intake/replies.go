package intake

import (
	"fmt"
	"strings"

	"garasiku/pkg/domain"
)

// User-facing replies. Short, actionable, and free of internal detail;
// anything an operator needs goes to the log instead.

const (
	replyNoSession = "Tidak ada sesi aktif. Ketik \"jual <deskripsi mobil>\" untuk input cepat, " +
		"\"jual mobil\" untuk input bertahap, atau \"batal\" untuk membatalkan."
	replyCancelled  = "Sesi dibatalkan. Data yang belum disimpan dihapus."
	replyDiscarded  = "Oke, listing tidak disimpan. Sesi ditutup."
	replySaveFailed = "Maaf, listing gagal disimpan karena gangguan sistem. Sesi ditutup, silakan kirim ulang dengan \"jual <deskripsi mobil>\"."

	replyPhotoPrompt = "Kirim foto mobil satu per satu (maksimal 10). Ketik \"selesai\" jika sudah, atau \"skip\" untuk lanjut tanpa foto."
	replyPhotoFirst  = "Foto pertama diterima. Kirim foto berikutnya, atau ketik \"selesai\" jika sudah."
	replyPhotoNoURL  = "Lampiran diterima tetapi foto tidak bisa diunduh dari sini. Foto bisa ditambahkan lewat dashboard nanti. Lanjutkan kirim foto lain atau ketik \"selesai\"."
	replyPhotoRetry  = "Foto gagal diunduh. Coba kirim ulang, atau ketik \"selesai\" untuk lanjut."

	replyConfirmPrompt = "Ketik \"ya\" untuk menyimpan listing, atau \"tidak\" untuk membatalkan."

	promptBrandModel     = "Input bertahap dimulai. Merek dan model mobilnya apa? (contoh: Toyota Avanza)"
	promptYearColor      = "Tahun dan warna? (contoh: 2019 hitam)"
	promptTransmissionKM = "Transmisi dan kilometer? (contoh: matic km 88000)"
	promptPrice          = "Harga berapa? (contoh: 187jt)"
	promptPlate          = "Nomor polisi? (ketik \"-\" untuk lewati)"
	promptFeatures       = "Fitur atau keunggulan, pisahkan dengan koma (ketik \"-\" untuk lewati)"

	replyNeedBrand = "Merek belum terbaca. Tulis merek dan modelnya, contoh: Toyota Avanza."
	replyNeedYear  = "Tahun belum terbaca. Tulis tahun antara 2000-2025, contoh: 2019 hitam."
	replyNeedPrice = "Harga belum terbaca. Contoh: 187jt atau 187000000."
)

// fieldLabels maps validation field names to what the user actually typed
// them as.
var fieldLabels = map[string]string{
	"brand": "merek",
	"year":  "tahun",
	"price": "harga",
}

func replyStartFailed(missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, field := range missing {
		if label, ok := fieldLabels[field]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, field)
		}
	}
	return fmt.Sprintf("Listing belum bisa diproses, data kurang: %s. "+
		"Kirim ulang dengan format: jual <merek> <model> <tahun> <harga>, contoh: jual Honda Jazz 2019 187jt.",
		strings.Join(labels, ", "))
}

func replyPhotoCount(n int) string {
	return fmt.Sprintf("%d foto diterima.", n)
}

func replySaved(code, publicName string) string {
	return fmt.Sprintf("Listing tersimpan dengan kode %s: %s. Unit akan tampil di katalog.", code, publicName)
}

// buildSummary renders the confirm-step message from the enhanced draft.
func buildSummary(draft domain.VehicleDraft) string {
	var sb strings.Builder
	sb.WriteString("Cek dulu ya:\n\n")
	if draft.EnhancedTitle != "" {
		fmt.Fprintf(&sb, "*%s*\n\n", draft.EnhancedTitle)
	}
	fmt.Fprintf(&sb, "Merek: %s\nModel: %s\nTahun: %d\n", draft.Brand, draft.Model, draft.Year)
	fmt.Fprintf(&sb, "Warna: %s\nTransmisi: %s\n", draft.Color, draft.Transmission)
	if draft.Odometer > 0 {
		fmt.Fprintf(&sb, "KM: %d\n", draft.Odometer)
	}
	fmt.Fprintf(&sb, "Harga: Rp %d\n", draft.Price)
	if draft.Plate != "" {
		fmt.Fprintf(&sb, "Nopol: %s\n", draft.Plate)
	}
	if len(draft.Features) > 0 {
		fmt.Fprintf(&sb, "Fitur: %s\n", strings.Join(draft.Features, ", "))
	}
	fmt.Fprintf(&sb, "Foto: %d\n", len(draft.Photos)+draft.UnstoredPhotos)
	if draft.EnhancedDescription != "" {
		fmt.Fprintf(&sb, "\n%s\n", draft.EnhancedDescription)
	}
	sb.WriteString("\n" + replyConfirmPrompt)
	return sb.String()
}
