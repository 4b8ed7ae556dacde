package guard

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/timex"
)

const (
	DefaultNameFieldName      = "name__confirm"
	DefaultValidFromFieldName = "from__confirm"
)

// HoneypotInputs are rendered into every protected form. The name field must
// come back present and empty; the valid-from field must come back unchanged.
type HoneypotInputs struct {
	NameFieldName      string `json:"nameFieldName"`
	ValidFromFieldName string `json:"validFromFieldName"`
	EncryptedValidFrom string `json:"encryptedValidFrom"`
}

type HoneypotConfig struct {
	Seed string
	// RandomizeNameFieldName appends a random suffix to the decoy name.
	RandomizeNameFieldName bool
	// MinDelay rejects forms submitted faster than a human could.
	MinDelay time.Duration
	Now      timex.Clock
}

type Honeypot struct {
	codec     *securecookie.SecureCookie
	randomize bool
	minDelay  time.Duration
	now       timex.Clock
}

func NewHoneypot(cfg HoneypotConfig) *Honeypot {
	codec := securecookie.New(
		deriveKey(cfg.Seed, "honeypot hash", 64),
		deriveKey(cfg.Seed, "honeypot block", 32),
	)
	codec.MaxAge(0)

	now := cfg.Now
	if now == nil {
		now = timex.Now
	}
	return &Honeypot{codec: codec, randomize: cfg.RandomizeNameFieldName, minDelay: cfg.MinDelay, now: now}
}

// Inputs returns fresh field names and an encrypted issuance time.
func (h *Honeypot) Inputs() (HoneypotInputs, error) {
	name := DefaultNameFieldName
	if h.randomize {
		suffix, err := common.MakeRandHexString(6)
		if err != nil {
			return HoneypotInputs{}, fmt.Errorf("honeypot name: %w", err)
		}
		name += "_" + suffix
	}

	validFrom, err := h.codec.Encode(DefaultValidFromFieldName, h.now().UnixMilli())
	if err != nil {
		return HoneypotInputs{}, fmt.Errorf("honeypot valid from: %w", err)
	}

	return HoneypotInputs{
		NameFieldName:      name,
		ValidFromFieldName: DefaultValidFromFieldName,
		EncryptedValidFrom: validFrom,
	}, nil
}

// Check returns common.ErrSpamDetected, wrapped with the reason, when form
// fails any honeypot rule.
func (h *Honeypot) Check(form url.Values) error {
	name := DefaultNameFieldName
	if h.randomize {
		name = randomizedName(form)
		if name == "" {
			return spam("missing honeypot input")
		}
	}

	values, ok := form[name]
	if !ok {
		return spam("missing honeypot input")
	}
	if len(values) == 0 || values[0] != "" {
		return spam("honeypot input not empty")
	}

	raw := form.Get(DefaultValidFromFieldName)
	if raw == "" {
		return spam("missing honeypot valid from input")
	}

	var millis int64
	if err := h.codec.Decode(DefaultValidFromFieldName, raw, &millis); err != nil {
		return spam("invalid honeypot valid from input")
	}

	validFrom := time.UnixMilli(millis)
	now := h.now()
	if validFrom.After(now) {
		return spam("honeypot valid from is in future")
	}
	if now.Sub(validFrom) < h.minDelay {
		return spam("form submitted too quickly")
	}
	return nil
}

func randomizedName(form url.Values) string {
	prefix := DefaultNameFieldName + "_"
	for key := range form {
		if strings.HasPrefix(key, prefix) {
			return key
		}
	}
	return ""
}

func spam(reason string) error {
	return fmt.Errorf("%w: %s", common.ErrSpamDetected, reason)
}
