package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/model"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// ownerCheck verifies that the authenticated caller may apply in.
type ownerCheck[In any] func(ctx context.Context, caller string, in In) error

// handle adapts a typed registry operation to an HTTP handler.
func handle[In, Out any](s *Server, op func(context.Context, In) (Out, error)) http.HandlerFunc {
	return guarded(s, op, nil)
}

// guarded is handle plus an ownership check against the bearer subject.
// The check runs only when RequireAuth is set.
func guarded[In, Out any](s *Server, op func(context.Context, In) (Out, error), check ownerCheck[In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decode(r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		if s.cfg.RequireAuth && check != nil {
			caller, ok := AccountKeyFromCtx(r.Context())
			if !ok {
				s.writeError(w, r, fmt.Errorf("%w: no authenticated account", errs.ErrInvalidToken))
				return
			}
			if err := check(r.Context(), caller, in); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		out, err := op(r.Context(), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// lookup adapts a single-field query to an HTTP handler.
func lookup[Out any](s *Server, field string, op func(context.Context, string) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := decode(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		value := body[field]
		if value == "" {
			s.writeError(w, r, fmt.Errorf("%w: missing %s", errs.ErrInvalidArgument, field))
			return
		}
		out, err := op(r.Context(), value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	acc, err := s.reg.Login(r.Context(), in, clientIP(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// decode reads a JSON or urlencoded form body into dst. Form values are
// routed through JSON so both encodings share the struct tags.
func decode(r *http.Request, dst any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body := http.MaxBytesReader(nil, r.Body, maxBody)

	if ct == "application/x-www-form-urlencoded" {
		r.Body = body
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: form: %v", errs.ErrInvalidArgument, err)
		}
		flat := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			flat[k] = r.PostForm.Get(k)
		}
		raw, err := json.Marshal(flat)
		if err != nil {
			return fmt.Errorf("%w: form: %v", errs.ErrInvalidArgument, err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: form: %v", errs.ErrInvalidArgument, err)
		}
		return nil
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("%w: body: %v", errs.ErrInvalidArgument, err)
	}
	return nil
}

// clientIP returns the host part of RemoteAddr, which RealIP has already resolved.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
