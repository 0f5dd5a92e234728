package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		runAddress   string
		baseURL      string
		smtpHost     string
		smtpPort     int
		supportEmail string
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				runAddress:   "localhost:3000",
				baseURL:      "http://localhost:3000",
				smtpHost:     "smtp.gmail.com",
				smtpPort:     587,
				supportEmail: "support@houseinmeta.com",
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"RUN_ADDRESS":   "localhost:9999",
				"BASE_URL":      "https://api.houseinmeta.com",
				"SMTP_HOST":     "mail.example.com",
				"SMTP_PORT":     "2525",
				"SUPPORT_EMAIL": "help@example.com",
			},
			flags: []string{},
			want: want{
				runAddress:   "localhost:9999",
				baseURL:      "https://api.houseinmeta.com",
				smtpHost:     "mail.example.com",
				smtpPort:     2525,
				supportEmail: "help@example.com",
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "localhost:7777",
				"-b", "http://flag.example.com",
			},
			want: want{
				runAddress:   "localhost:7777",
				baseURL:      "http://flag.example.com",
				smtpHost:     "smtp.gmail.com",
				smtpPort:     587,
				supportEmail: "support@houseinmeta.com",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS": "env:9000",
				"BASE_URL":    "http://env.example.com",
			},
			flags: []string{
				"-a", "flag:8000",
				"-b", "http://flag.example.com",
			},
			want: want{
				runAddress:   "env:9000",
				baseURL:      "http://env.example.com",
				smtpHost:     "smtp.gmail.com",
				smtpPort:     587,
				supportEmail: "support@houseinmeta.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			require.NoError(t, err)

			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.baseURL, cfg.BaseURL)
			assert.Equal(t, tt.want.smtpHost, cfg.SMTPHost)
			assert.Equal(t, tt.want.smtpPort, cfg.SMTPPort)
			assert.Equal(t, tt.want.supportEmail, cfg.SupportEmail)
		})
	}
}

func TestMailConfigured(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.MailConfigured())

	cfg.SMTPUser = "noreply@houseinmeta.com"
	assert.False(t, cfg.MailConfigured())

	cfg.SMTPPassword = "app-password"
	assert.True(t, cfg.MailConfigured())
}
