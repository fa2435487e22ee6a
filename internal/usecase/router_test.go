package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"simrs-agent/internal/domain"
)

// fakeProvider is a scriptable LLMProvider for tests. It records the last
// request it received.
type fakeProvider struct {
	content string
	err     error
	calls   int
	last    domain.ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChatResponse{Content: f.content}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestClassifyOffline(t *testing.T) {
	tests := []struct {
		utterance string
		target    domain.AgentID
		rationale string
	}{
		{"Berapa biaya operasi caesar?", domain.AgentBilling, "Keyword: Biaya"},
		{"saya mau BAYAR tagihan", domain.AgentBilling, "Keyword: Biaya"},
		{"minta salinan faktur bulan lalu", domain.AgentBilling, "Keyword: Biaya"},
		{"kepala saya sakit sejak kemarin", domain.AgentEMR, "Keyword: Medis"},
		{"obat saya habis", domain.AgentEMR, "Keyword: Medis"},
		{"apa diagnosa terakhir saya?", domain.AgentEMR, "Keyword: Medis"},
		{"jadwal praktek poli anak", domain.AgentAppointment, "Keyword: Jadwal"},
		{"mau buat janji temu", domain.AgentAppointment, "Keyword: Jadwal"},
		{"Saya mau daftar berobat ke dokter gigi besok", domain.AgentAppointment, "Keyword: Jadwal"},
		{"halo, saya pasien baru", domain.AgentRegistration, "Default"},
		{"", domain.AgentRegistration, "Default"},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := ClassifyOffline(tt.utterance)
			require.Equal(t, tt.target, got.Target)
			require.Equal(t, tt.rationale, got.Rationale)
			require.NotNil(t, got.Parameters)
		})
	}
}

// Rule precedence: billing keywords are checked before medical ones, so an
// utterance matching both routes to billing.
func TestClassifyOfflinePrecedence(t *testing.T) {
	got := ClassifyOffline("berapa biaya obat ini?")
	require.Equal(t, domain.AgentBilling, got.Target)
}

func TestClassifyOfflineDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		got := ClassifyOffline("cek jadwal dokter")
		require.Equal(t, domain.AgentAppointment, got.Target)
		require.Equal(t, "Keyword: Jadwal", got.Rationale)
	}
}

func TestClassifyMockSkipsBackend(t *testing.T) {
	fp := &fakeProvider{content: `{"route":"EMR","reasoning":"x"}`}
	r := NewIntentRouter(fp, true, nil)

	got := r.Classify(context.Background(), "berapa biaya rawat inap?")
	require.Equal(t, domain.AgentBilling, got.Target)
	require.Zero(t, fp.calls)
}

func TestClassifyBackend(t *testing.T) {
	fp := &fakeProvider{content: `{"route":"APPOINTMENT","reasoning":"User ingin membuat janji temu","parameters":{"poli":"gigi","waktu":"besok"}}`}
	r := NewIntentRouter(fp, false, nil)

	got := r.Classify(context.Background(), "Saya mau daftar berobat ke dokter gigi besok")
	require.Equal(t, domain.AgentAppointment, got.Target)
	require.Equal(t, "User ingin membuat janji temu", got.Rationale)
	require.Equal(t, "gigi", got.Parameters["poli"])
	require.Equal(t, "besok", got.Parameters["waktu"])

	require.Equal(t, 1, fp.calls)
	require.NotEmpty(t, fp.last.System)
	require.NotEmpty(t, fp.last.ResponseSchema)
	require.Equal(t, "Saya mau daftar berobat ke dokter gigi besok", fp.last.Content)
}

func TestClassifyBackendCodeFenced(t *testing.T) {
	fp := &fakeProvider{content: "```json\n{\"route\":\"EMR\",\"reasoning\":\"riwayat\"}\n```"}
	r := NewIntentRouter(fp, false, nil)

	got := r.Classify(context.Background(), "cek riwayat lab saya")
	require.Equal(t, domain.AgentEMR, got.Target)
}

func TestClassifyBackendMissingParameters(t *testing.T) {
	fp := &fakeProvider{content: `{"route":"BILLING","reasoning":"tagihan"}`}
	r := NewIntentRouter(fp, false, nil)

	got := r.Classify(context.Background(), "tagihan saya")
	require.Equal(t, domain.AgentBilling, got.Target)
	require.NotNil(t, got.Parameters)
	require.Empty(t, got.Parameters)
}

func TestClassifyFallback(t *testing.T) {
	tests := []struct {
		name string
		fp   *fakeProvider
	}{
		{"backend error", &fakeProvider{err: errors.New("boom")}},
		{"empty completion", &fakeProvider{content: ""}},
		{"not json", &fakeProvider{content: "tentu, saya bantu rutekan"}},
		{"unknown route", &fakeProvider{content: `{"route":"PHARMACY","reasoning":"obat"}`}},
		{"missing reasoning", &fakeProvider{content: `{"route":"EMR"}`}},
		{"route wrong type", &fakeProvider{content: `{"route":42,"reasoning":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewIntentRouter(tt.fp, false, nil)
			got := r.Classify(context.Background(), "halo")
			require.Equal(t, domain.AgentRegistration, got.Target)
			require.Equal(t, fallbackRationale, got.Rationale)
			require.NotNil(t, got.Parameters)
			require.Empty(t, got.Parameters)
		})
	}
}

// Whatever happens, the decision must name an agent the dispatcher accepts.
func TestClassifyAlwaysDispatchable(t *testing.T) {
	providers := []*fakeProvider{
		{content: `{"route":"APPOINTMENT","reasoning":"ok"}`},
		{content: `{"route":"ROUTER","reasoning":"self"}`},
		{content: "garbage"},
		{err: errors.New("down")},
	}
	for _, fp := range providers {
		r := NewIntentRouter(fp, false, nil)
		got := r.Classify(context.Background(), "apapun")
		require.True(t, got.Target.Dispatchable(), "target %q", got.Target)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}
