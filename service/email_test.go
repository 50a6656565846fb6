package service

import (
	"testing"

	"clarity/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateWelcomeEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateWelcomeEmailBody("Ada", "ada@example.com")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "<!DOCTYPE html>")
}

func TestGenerateWelcomeEmailBody_EscapesName(t *testing.T) {
	s := newTestEmailService()
	body := s.generateWelcomeEmailBody("<script>x</script>", "a@b.c")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestSendWelcomeEmail_Disabled(t *testing.T) {
	s := newTestEmailService()
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.SendWelcomeEmail("ada@example.com", "Ada"), ErrEmailDisabled)

	var nilService *EmailService
	assert.False(t, nilService.Enabled())
}

func TestEnabled(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 465})
	assert.True(t, s.Enabled())
}
