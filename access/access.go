package access

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"slotbook/store"
)

var ErrNotApproved = errors.New("email not on the approved list")

// Gate checks logins against the approved-email allow-list. Email is
// the sole identity scheme: the normalized email doubles as the userId
// used by the booking ledger.
type Gate struct {
	store store.Store
}

func New(st store.Store) *Gate {
	return &Gate{store: st}
}

// Normalize canonicalizes an email for use as identity.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsApproved reports whether the email exists on the allow-list.
func (g *Gate) IsApproved(ctx context.Context, email string) (bool, error) {
	_, err := g.store.Get(ctx, store.Approved, Normalize(email))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check allow-list: %w", err)
	}
	return true, nil
}

// Authorize returns the caller's userId on success.
func (g *Gate) Authorize(ctx context.Context, email string) (string, error) {
	userID := Normalize(email)
	if userID == "" || !strings.Contains(userID, "@") {
		return "", ErrNotApproved
	}
	ok, err := g.IsApproved(ctx, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotApproved
	}
	return userID, nil
}

// UploadApproved reads a newline-separated email list and upserts each
// entry into the allow-list. Blank lines and lines without '@' are
// skipped. Returns the number of entries stored.
func (g *Gate) UploadApproved(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	count := 0
	for scanner.Scan() {
		email := Normalize(scanner.Text())
		if email == "" || !strings.Contains(email, "@") {
			continue
		}
		if err := g.store.Put(ctx, store.Approved, email, store.Doc{"email": email}); err != nil {
			return count, fmt.Errorf("store approved email %s: %w", email, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read email list: %w", err)
	}
	return count, nil
}
