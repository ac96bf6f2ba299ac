package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func TestLocalizeCmd_Use(t *testing.T) {
	assert.Equal(t, "localize", localizeCmd.Use)
	assert.Contains(t, localizeCmd.Long, "location capture")
}

func TestLocalize_NoReferences(t *testing.T) {
	useRuntime(t, testRuntime(t))

	_, err := execute(t, nil, "localize")

	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestLocalize_RejectsArgs(t *testing.T) {
	useRuntime(t, testRuntime(t))

	_, err := execute(t, nil, "localize", "lobby")

	assert.Error(t, err)
}
