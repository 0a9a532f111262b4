package flow

import (
	"fmt"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/state"
	"github.com/mitchellh/mapstructure"
)

// loadDraft decodes the user's scratch data into a typed draft.
// Weak typing absorbs the float64 numbers produced by JSON session backends.
func loadDraft[T any](states *state.Store, user domain.UserID) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(states.All(user)); err != nil {
		return out, fmt.Errorf("decode draft: %w", err)
	}
	return out, nil
}

// saveDraft writes every field of draft into the user's scratch data.
func saveDraft(states *state.Store, user domain.UserID, draft any) error {
	fields := map[string]any{}
	if err := mapstructure.Decode(draft, &fields); err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	for k, v := range fields {
		states.SetData(user, k, v)
	}
	return nil
}
