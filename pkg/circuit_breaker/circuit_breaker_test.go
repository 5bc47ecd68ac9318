package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Astemirdum/library-assistant/pkg/circuit_breaker"
	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errService := errors.New("service error")
	ok := func() error { return nil }
	fail := func() error { return errService }

	tests := []struct {
		name string
		run  func(t *testing.T, cb circuit_breaker.CircuitBreaker)
	}{
		{
			name: "stays closed on success",
			run: func(t *testing.T, cb circuit_breaker.CircuitBreaker) {
				for i := 0; i < 50; i++ {
					require.NoError(t, cb.Call(ok))
				}
				require.Equal(t, circuit_breaker.Closed, cb.State())
			},
		},
		{
			name: "opens after failure share reached",
			run: func(t *testing.T, cb circuit_breaker.CircuitBreaker) {
				for i := 0; i < 3; i++ {
					require.ErrorIs(t, cb.Call(fail), errService)
				}
				require.Equal(t, circuit_breaker.Open, cb.State())
				called := false
				err := cb.Call(func() error { called = true; return nil })
				require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
				require.False(t, called)
			},
		},
		{
			name: "half-open recovers to closed",
			run: func(t *testing.T, cb circuit_breaker.CircuitBreaker) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				require.Equal(t, circuit_breaker.Open, cb.State())
				time.Sleep(60 * time.Millisecond)
				require.NoError(t, cb.Call(ok))
				require.Equal(t, circuit_breaker.HalfOpen, cb.State())
				require.NoError(t, cb.Call(ok))
				require.Equal(t, circuit_breaker.Closed, cb.State())
			},
		},
		{
			name: "half-open failure reopens",
			run: func(t *testing.T, cb circuit_breaker.CircuitBreaker) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				time.Sleep(60 * time.Millisecond)
				require.ErrorIs(t, cb.Call(fail), errService)
				require.Equal(t, circuit_breaker.Open, cb.State())
			},
		},
		{
			name: "reset closes",
			run: func(t *testing.T, cb circuit_breaker.CircuitBreaker) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				cb.Reset()
				require.Equal(t, circuit_breaker.Closed, cb.State())
				require.NoError(t, cb.Call(ok))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cb := circuit_breaker.New(10, 50*time.Millisecond, 0.3, 2)
			tt.run(t, cb)
		})
	}
}
