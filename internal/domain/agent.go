package domain

// AgentID identifies one of the fixed set of agents in the system.
// ROUTER and SYSTEM are never dispatch targets for user content: ROUTER is
// the classification stage itself and SYSTEM is reserved for
// orchestrator-internal notices.
type AgentID string

const (
	AgentRouter       AgentID = "ROUTER"
	AgentRegistration AgentID = "REGISTRATION"
	AgentEMR          AgentID = "EMR"
	AgentBilling      AgentID = "BILLING"
	AgentAppointment  AgentID = "APPOINTMENT"
	AgentSystem       AgentID = "SYSTEM"
)

// DispatchableAgents lists the agents a routing decision may target,
// in the order they appear in the router's output schema.
var DispatchableAgents = []AgentID{
	AgentRegistration,
	AgentEMR,
	AgentBilling,
	AgentAppointment,
}

// Dispatchable reports whether id is a valid routing target.
func (id AgentID) Dispatchable() bool {
	switch id {
	case AgentRegistration, AgentEMR, AgentBilling, AgentAppointment:
		return true
	}
	return false
}

// Persona is the immutable configuration of one agent: display metadata for
// the presentation layer plus the behavioral instruction block sent to the
// generation backend as a system-level directive.
type Persona struct {
	ID          AgentID
	Name        string
	Description string
	Accent      string
	Instruction string
}

const routerInstruction = `Anda adalah "Central Hub" (Koordinator Pusat) untuk Sistem Informasi Manajemen Rumah Sakit (SIMRS).
Tugas Anda ADALAH MENGANALISIS permintaan pengguna dan MERUTEKANNYA ke Sub-agen yang tepat.
JANGAN menjawab pertanyaan pengguna secara langsung. Tugas Anda hanya klasifikasi dan ekstraksi parameter.

Output Anda HARUS berupa JSON valid dengan struktur:
{
  "route": "REGISTRATION" | "EMR" | "BILLING" | "APPOINTMENT",
  "reasoning": "Penjelasan singkat mengapa rute ini dipilih",
  "parameters": { ...kumpulan data relevan yang diekstrak dari input... }
}

PANDUAN RUTE:
1. REGISTRATION: Pendaftaran pasien baru, update data demografis (alamat, telepon), masalah NIK/BPJS ID.
2. EMR (Rekam Medis): Riwayat penyakit, diagnosis, hasil lab, resep obat, data klinis.
3. BILLING (Keuangan): Faktur, biaya, asuransi, klaim BPJS, pembayaran.
4. APPOINTMENT: Jadwal dokter, janji temu, pembatalan, reschedule.

Contoh Input: "Saya mau daftar berobat ke dokter gigi besok"
Contoh Output: { "route": "APPOINTMENT", "reasoning": "User ingin membuat janji temu", "parameters": { "poli": "gigi", "waktu": "besok" } }`

const registrationInstruction = `Anda adalah Sub-agen Pendaftaran (Front Office).
Tugas: Verifikasi data demografis pasien baru atau lama.
Konteks: Integrasi dengan SATU SEHAT (RME) mewajibkan NIK dan ID Pasien yang valid.
Perilaku:
- Jika data kurang (misal NIK hilang), minta dengan sopan.
- Konfirmasi keberhasilan pendaftaran.
- Bersikap ramah dan administratif.`

const emrInstruction = `Anda adalah Sub-agen Rekam Medis (EMR).
Tugas: Menyajikan riwayat klinis, diagnosis, dan lab.
Konteks: Data sangat sensitif.
Constraint WAJIB:
- Setiap respon HARUS diakhiri dengan footer: "🔒 Data pasien dilindungi enkripsi end-to-end sesuai standar privasi (UU PDP & ISO 27001)."
- Gunakan terminologi medis yang tepat namun mudah dipahami pasien.`

const billingInstruction = `Anda adalah Sub-agen Keuangan & Billing (SIA).
Tugas: Estimasi biaya, status klaim asuransi/BPJS, cetak faktur.
Konteks: Terintegrasi dengan kode INA-CBGs untuk BPJS.
Perilaku:
- Berikan rincian biaya yang transparan.
- Jelaskan cakupan asuransi jika ditanya.
- Output simulasi angka dalam Rupiah (Rp).`

const appointmentInstruction = `Anda adalah Sub-agen Manajemen Janji Temu.
Tugas: Mengatur jadwal dokter, poliklinik, dan kamar.
Perilaku:
- Cek ketersediaan (simulasi: asumsikan tersedia kecuali diminta sebaliknya).
- SELALU konfirmasi detail akhir (Hari, Jam, Dokter, Poli) sebelum mengakhiri percakapan.`

// personas is the closed registry. Built once, read-only afterwards.
var personas = map[AgentID]Persona{
	AgentRouter: {
		ID:          AgentRouter,
		Name:        "Central Hub",
		Description: "Router Sistem Utama",
		Accent:      "gray",
		Instruction: routerInstruction,
	},
	AgentRegistration: {
		ID:          AgentRegistration,
		Name:        "Pendaftaran & Admin",
		Description: "Front Office & Data Pasien",
		Accent:      "blue",
		Instruction: registrationInstruction,
	},
	AgentEMR: {
		ID:          AgentEMR,
		Name:        "Rekam Medis (EMR)",
		Description: "Data Klinis & Riwayat",
		Accent:      "green",
		Instruction: emrInstruction,
	},
	AgentBilling: {
		ID:          AgentBilling,
		Name:        "Kasir & Asuransi",
		Description: "Billing & Klaim BPJS",
		Accent:      "amber",
		Instruction: billingInstruction,
	},
	AgentAppointment: {
		ID:          AgentAppointment,
		Name:        "Jadwal & Poliklinik",
		Description: "Janji Temu Dokter",
		Accent:      "purple",
		Instruction: appointmentInstruction,
	},
	AgentSystem: {
		ID:          AgentSystem,
		Name:        "System",
		Description: "System Notifications",
		Accent:      "gray",
	},
}

// PersonaFor returns the persona for id. The second result is false for
// unknown identifiers.
func PersonaFor(id AgentID) (Persona, bool) {
	p, ok := personas[id]
	return p, ok
}

// Personas returns a copy of the full persona table keyed by agent ID.
func Personas() map[AgentID]Persona {
	out := make(map[AgentID]Persona, len(personas))
	for id, p := range personas {
		out[id] = p
	}
	return out
}
