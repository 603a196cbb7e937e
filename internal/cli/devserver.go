package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tgienger/toman/internal/fakeapi"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
)

const demoUserID = "user_demo"

func (a *app) devserverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve an in-memory backend with demo data",
		Long: `Serve an in-memory Toman backend for local development. It answers the same
routes as the real backend and prints a session token for the demo owner.`,
		Args: cobra.NoArgs,
		RunE: a.runDevserver,
	}
	cmd.Flags().String("addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().String("user", demoUserID, "user id of the demo owner")
	cmd.Flags().Bool("empty", false, "start without demo data")
	cmd.Flags().Duration("latency", 0, "delay added to every response")
	return cmd
}

func (a *app) runDevserver(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	userID, _ := cmd.Flags().GetString("user")
	empty, _ := cmd.Flags().GetBool("empty")
	latency, _ := cmd.Flags().GetDuration("latency")
	log := a.rt.log.WithField("operation", "cli.devserver")

	backend := fakeapi.New(a.rt.log)
	backend.SetLatency(latency)
	owner := models.User{ID: userID, Name: "Demo Owner", Email: "owner@toman.local"}
	if !empty {
		ws := fakeapi.SeedDemo(backend, owner.ID)
		log.WithField("workspace", ws.ID).Info("seeded demo data")
	}

	token, err := mintToken(owner, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("minting demo token: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend,
		ReadHeaderTimeout: 5 * time.Second,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Serving the dev backend on http://%s\n\n", addr)
	fmt.Fprintf(out, "  export TOMAN_BACKEND_URL=http://%s\n", addr)
	fmt.Fprintf(out, "  export TOMAN_TOKEN=%s\n\n", token)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// mintToken signs a session token for u with a throwaway key. The dev
// backend does not verify signatures.
func mintToken(u models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := session.Claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uuid.NewString()))
}
