package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/payment"
	"github.com/rshade/tripcarbon/internal/wizard"
)

func sampleState(id string) wizard.State {
	updated := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	confirmed := updated.Add(time.Minute)
	return wizard.State{
		ID:          id,
		CurrentStep: wizard.StepSuccess,
		User:        wizard.User{Name: wizard.DefaultUserName, CPF: "123.456.789-00", Phone: "(11) 98765-4321"},
		Origin:      &carbon.Origin{State: "MG", City: "Ouro Preto"},
		Transport: &wizard.Transport{
			Transport: carbon.Transport{
				Vehicle:    carbon.VehicleOnibus,
				Fuel:       carbon.FuelDiesel,
				DistanceKm: 680,
				Passengers: 12,
			},
			AutomaticDistance: true,
		},
		Calculation: &carbon.Calculation{EmissionFactor: 0.25, TotalEmission: 476, CompensationValue: 19.04},
		Payment: &payment.Request{
			ID:              "E2CARBON-ABCDEF12",
			Key:             payment.DefaultPixKey,
			Amount:          19.04,
			FormattedAmount: "R$ 19,04",
			Payload:         payment.DefaultPixKey + "|19.04|E2CARBON-ABCDEF12",
			CreatedAt:       updated,
			ConfirmedAt:     &confirmed,
		},
		UpdatedAt: updated,
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "sessions"))
	require.NoError(t, err)
	sqlite, err := OpenSQLite(filepath.Join(dir, "wizard.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		DriverMemory: NewMemoryStore(),
		DriverFile:   file,
		DriverSQLite: sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleState("session-1")
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx, "session-1")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.CurrentStep, got.CurrentStep)
			assert.Equal(t, want.User, got.User)
			assert.Equal(t, want.Origin, got.Origin)
			assert.Equal(t, want.Transport, got.Transport)
			assert.Equal(t, want.Calculation, got.Calculation)
			require.NotNil(t, got.Payment)
			assert.Equal(t, want.Payment.ID, got.Payment.ID)
			assert.True(t, want.Payment.ConfirmedAt.Equal(*got.Payment.ConfirmedAt))
			assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
		})
	}
}

func TestStore_OverwriteDropsClearedKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			state := sampleState("session-2")
			require.NoError(t, s.Save(ctx, state))

			state.CurrentStep = wizard.StepLogin
			state.Origin = nil
			state.Transport = nil
			state.Calculation = nil
			state.Payment = nil
			require.NoError(t, s.Save(ctx, state))

			got, err := s.Load(ctx, "session-2")
			require.NoError(t, err)
			assert.Equal(t, wizard.StepLogin, got.CurrentStep)
			assert.Nil(t, got.Origin)
			assert.Nil(t, got.Transport)
			assert.Nil(t, got.Calculation)
			assert.Nil(t, got.Payment)
			assert.Equal(t, state.User, got.User)
		})
	}
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)

			require.NoError(t, s.Save(ctx, sampleState("session-3")))
			require.NoError(t, s.Delete(ctx, "session-3"))
			_, err = s.Load(ctx, "session-3")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RejectsInvalidID(t *testing.T) {
	ctx := context.Background()
	ids := []string{"", " ", "../escape", "a/b", "a b", "sess.json", "sessão"}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range ids {
				assert.ErrorIs(t, s.Save(ctx, sampleState(id)), ErrInvalidID, "save %q", id)
				_, err := s.Load(ctx, id)
				assert.ErrorIs(t, err, ErrInvalidID, "load %q", id)
				assert.ErrorIs(t, s.Delete(ctx, id), ErrInvalidID, "delete %q", id)
			}

			// The same ID is accepted by every backend.
			require.NoError(t, s.Save(ctx, sampleState("Session_9-a")))
		})
	}
}

func TestStore_RestoredSessionContinues(t *testing.T) {
	ctx := context.Background()
	calc := carbon.NewCalculator(carbon.DefaultPolicy())
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			sess := wizard.NewSession(calc)
			require.NoError(t, sess.Login("123.456.789-00", "(11) 98765-4321"))
			require.NoError(t, sess.SetOrigin(wizard.OriginForm{State: "SP", City: "Santos"}))
			require.NoError(t, s.Save(ctx, sess.State()))

			loaded, err := s.Load(ctx, sess.ID())
			require.NoError(t, err)
			restored := wizard.Restore(loaded, calc)
			assert.Equal(t, wizard.StepTransport, restored.Step())

			require.NoError(t, restored.SetTransport(wizard.TransportForm{Vehicle: "Carro", Fuel: "Gasolina"}))
			assert.Equal(t, 780.0, restored.State().Transport.DistanceKm)
		})
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	assert.ErrorIs(t, s.Save(ctx, sampleState("x")), context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		cfg     Config
		want    any
		wantErr bool
	}{
		{cfg: Config{}, want: &MemoryStore{}},
		{cfg: Config{Driver: "MEMORY"}, want: &MemoryStore{}},
		{cfg: Config{Driver: DriverFile, Path: filepath.Join(dir, "files")}, want: &FileStore{}},
		{cfg: Config{Driver: DriverSQLite, Path: filepath.Join(dir, "db.sqlite")}, want: &SQLiteStore{}},
		{cfg: Config{Driver: DriverFile}, wantErr: true},
		{cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{cfg: Config{Driver: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Driver, func(t *testing.T) {
			s, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}
