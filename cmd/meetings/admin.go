package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/persistence"
)

type adminOptions struct {
	username string
	email    string
	password string
}

func parseAdminOptions(args []string, output io.Writer) (adminOptions, error) {
	var opts adminOptions
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.username, "username", "", "administrator username")
	fs.StringVar(&opts.email, "email", "", "administrator email address")
	fs.StringVar(&opts.password, "password", "", "administrator password")
	if err := fs.Parse(args); err != nil {
		return adminOptions{}, err
	}
	opts.username = strings.TrimSpace(opts.username)
	opts.email = strings.TrimSpace(opts.email)
	if opts.username == "" || opts.password == "" {
		return adminOptions{}, errors.New("createadmin requires -username and -password")
	}
	return opts, nil
}

// createAdmin stores a staff account that can manage rooms.
func createAdmin(ctx context.Context, users persistence.UserRepository, opts adminOptions, now func() time.Time) (persistence.User, error) {
	hash, err := application.HashPassword(opts.password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := users.CreateUser(ctx, persistence.User{
		Username:     opts.username,
		Email:        opts.email,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now().UTC(),
	})
	if errors.Is(err, persistence.ErrDuplicate) {
		return persistence.User{}, fmt.Errorf("user %q already exists", opts.username)
	}
	return user, err
}
