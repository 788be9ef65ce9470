package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func okHandle(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func hit(handle httprouter.Handle, addr string) int {
	r := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	r.RemoteAddr = addr
	w := httptest.NewRecorder()
	handle(w, r, nil)
	return w.Code
}

func TestLimitAllowsBurstThenThrottles(t *testing.T) {
	rl := NewRateLimiter()
	handle := rl.Limit(okHandle)

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		codes = append(codes, hit(handle, "192.0.2.1:1234"))
	}

	// A double-click lands two requests back to back; both must pass.
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("Expected the first two requests to pass, got %v", codes[:2])
	}

	throttled := 0
	for _, c := range codes {
		if c == http.StatusTooManyRequests {
			throttled++
		}
	}
	if throttled == 0 {
		t.Fatal("Expected a rapid burst to hit the limiter")
	}
}

func TestLimitIsPerIP(t *testing.T) {
	rl := NewRateLimiter()
	handle := rl.Limit(okHandle)

	for i := 0; i < 10; i++ {
		hit(handle, "192.0.2.1:1234")
	}
	if code := hit(handle, "192.0.2.2:1234"); code != http.StatusOK {
		t.Fatalf("Expected a fresh IP to pass, got %d", code)
	}
}
