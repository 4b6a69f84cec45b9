package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/internal/data/repository"
	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"
)

const defaultSessionTTL = 24 * time.Hour

// CreateAPIKey registers an external service and prints its raw key once.
// Only the hash is stored, so the key cannot be shown again.
func CreateAPIKey(ctx context.Context, out io.Writer, repo repository.ExternalServiceRepository, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("usage: apikey create <service name>")
	}

	raw, prefix, err := utils.GenerateAPIKey()
	if err != nil {
		return err
	}
	hash, err := utils.HashAPIKey(raw)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	svc := &entity.ExternalService{
		BaseNoDelete: entity.BaseNoDelete{ID: utils.GenerateUUID(), CreatedAt: now, UpdatedAt: now},
		Name:         name,
		APIKeyPrefix: prefix,
		APIKeyHash:   hash,
		IsActive:     true,
	}
	if err := repo.Create(ctx, svc); err != nil {
		return err
	}

	fmt.Fprintf(out, "service: %s\nid:      %s\napi key: %s\n", svc.Name, svc.ID, raw)
	return nil
}

// IssueSession prints a bearer token for a host. Args: <host-id> [ttl].
func IssueSession(ctx context.Context, out io.Writer, hosts usecase.HostService, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: session issue <host-id> [ttl]")
	}

	hostID, err := utils.ParseUUID(args[0])
	if err != nil {
		return err
	}

	ttl := defaultSessionTTL
	if len(args) == 2 {
		ttl, err = time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", args[1], err)
		}
	}

	session, err := hosts.IssueSession(ctx, hostID, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "token:   %s\nexpires: %s\n", session.Token, session.ExpiresAt.Format(time.RFC3339))
	return nil
}

// RevokeSessions signs a host out of every session. Args: <host-id>.
func RevokeSessions(ctx context.Context, out io.Writer, hosts usecase.HostService, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: session revoke <host-id>")
	}

	hostID, err := utils.ParseUUID(args[0])
	if err != nil {
		return err
	}

	revoked, err := hosts.RevokeSessions(ctx, hostID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "revoked %d session(s)\n", revoked)
	return nil
}
