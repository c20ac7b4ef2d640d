package voice

import (
	"net/http/httptest"
	"testing"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name      string
		header    map[string]string
		wantToken string
		wantProto string
	}{
		{
			name:      "authorization header",
			header:    map[string]string{"Authorization": "Bearer abc123"},
			wantToken: "abc123",
		},
		{
			name:      "subprotocol token",
			header:    map[string]string{"Sec-Websocket-Protocol": "bearer.abc123"},
			wantToken: "abc123",
			wantProto: "bearer.abc123",
		},
		{
			name:      "subprotocol token among others",
			header:    map[string]string{"Sec-Websocket-Protocol": "realtime, bearer.xyz"},
			wantToken: "xyz",
			wantProto: "bearer.xyz",
		},
		{
			name:      "header wins over subprotocol",
			header:    map[string]string{"Authorization": "Bearer fromheader", "Sec-Websocket-Protocol": "bearer.fromproto"},
			wantToken: "fromheader",
		},
		{
			name: "no credentials",
		},
		{
			name:   "malformed authorization scheme",
			header: map[string]string{"Authorization": "Basic abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/voice/ws", nil)
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}

			token, proto := extractToken(r)
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
			if proto != tt.wantProto {
				t.Errorf("subprotocol = %q, want %q", proto, tt.wantProto)
			}
		})
	}
}
