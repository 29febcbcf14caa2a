package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Deduper suppresses repeat inquiries from the same contact inside a short
// window, so a double-submitted form does not create two leads.
type Deduper struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewDeduper(rdb *goredis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// FirstSeen marks the contact as seen and reports whether this is the first
// submission inside the window. Contact identity is email plus phone,
// normalized before hashing so cosmetic differences do not defeat the check.
func (d *Deduper) FirstSeen(ctx context.Context, email, phone string) (bool, error) {
	key := "dedup:leads:" + contactFingerprint(email, phone)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return ok, nil
}

func contactFingerprint(email, phone string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	sum := sha256.Sum256([]byte(email + "|" + phone))
	return hex.EncodeToString(sum[:])
}
