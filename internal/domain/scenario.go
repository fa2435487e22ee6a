package domain

// Scenario is a canned prompt the presentation layer can feed into the
// orchestrator as-is. The catalog has no other interaction with core logic.
type Scenario struct {
	Title       string
	Description string
	Prompt      string
}

// Scenarios is the static quick-scenario catalog.
var Scenarios = []Scenario{
	{
		Title:       "Skenario Klinis & Biaya",
		Prompt:      "Dok, tolong cek diagnosis terakhir saya dan berikan estimasi biaya jika harus rawat inap seminggu.",
		Description: "Menguji koordinasi EMR dan Billing.",
	},
	{
		Title:       "Skenario Regulasi (Satu Sehat)",
		Prompt:      "Saya mau update data alamat rumah, tapi saya lupa bawa KTP untuk nomor NIK.",
		Description: "Menguji validasi data Pendaftaran.",
	},
	{
		Title:       "Skenario Reschedule",
		Prompt:      "Saya ingin ubah jadwal temu dengan Dr. Budi spesialis Jantung besok menjadi lusa.",
		Description: "Menguji manajemen Janji Temu.",
	},
}
