// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLocalhost(t *testing.T) {
	assert.True(t, IsLocalhost(""))
	assert.True(t, IsLocalhost("localhost"))
	assert.True(t, IsLocalhost("127.0.0.1"))
	assert.True(t, IsLocalhost("::1"))
	assert.True(t, IsLocalhost("app.localhost"))

	assert.False(t, IsLocalhost("example.com"))
	assert.False(t, IsLocalhost("192.168.1.10"))
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "localhost http",
			cfg:  Config{Server: ServerConfig{Host: "localhost", Port: 8080}, TLS: TLSConfig{Mode: "auto"}},
			want: "http://localhost:8080",
		},
		{
			name: "default http port hidden",
			cfg:  Config{Server: ServerConfig{Host: "localhost", Port: 80}, TLS: TLSConfig{Mode: "off"}},
			want: "http://localhost",
		},
		{
			name: "acme always 443",
			cfg:  Config{Server: ServerConfig{Host: "example.com", Port: 8080}, TLS: TLSConfig{Mode: "acme"}},
			want: "https://example.com",
		},
		{
			name: "selfsigned keeps port",
			cfg:  Config{Server: ServerConfig{Host: "example.com", Port: 8443}, TLS: TLSConfig{Mode: "selfsigned"}},
			want: "https://example.com:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildBaseURL(&tt.cfg))
		})
	}
}
