package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromState(t *testing.T) {
	tests := []struct {
		state string
		want  Status
	}{
		{"completed", StatusConnected},
		{"inactive", StatusIdle},
		{"disconnected", StatusDisconnected},
		{"scanning", StatusDisconnected},
		{"associating", StatusDisconnected},
		{"4way_handshake", StatusDisconnected},
		{"group_handshake", StatusDisconnected},
		{"interface_disabled", StatusFailed},
		{"unknown", StatusFailed},
		{"", StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromState(tt.state))
		})
	}
}

func TestNewConnection(t *testing.T) {
	assert.Equal(t, &WpaConnection{Ssid: "open"}, NewConnection("open", ""))
	assert.Equal(t, &WpaPskConnection{Ssid: "home", Psk: "secret"}, NewConnection("home", "secret"))
}

func TestMockNetworkScanKeepsOrder(t *testing.T) {
	n := NewMockNetwork(&MockConfig{Ssids: []string{"B", "A", "B"}})

	wifis, err := n.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, wifis, 3)

	assert.Equal(t, "B", wifis[0].Ssid)
	assert.Equal(t, "A", wifis[1].Ssid)
	assert.Equal(t, "B", wifis[2].Ssid)
	assert.Equal(t, 1, n.Scans())
}

func TestMockNetworkConnectWithoutDelayStaysDisconnected(t *testing.T) {
	n := NewMockNetwork(&MockConfig{Ssids: []string{"home"}})

	require.NoError(t, n.Connect(NewConnection("home", "secret")))

	status, err := n.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, status)
	assert.Len(t, n.Connections(), 1)
}

func TestMockNetworkConnectSettles(t *testing.T) {
	n := NewMockNetwork(&MockConfig{
		Ssids:        []string{"home"},
		ConnectDelay: 10 * time.Millisecond,
	})
	defer n.Stop()

	require.NoError(t, n.Connect(NewConnection("home", "secret")))

	assert.Eventually(t, func() bool {
		status, _ := n.Status()
		return status == StatusConnected
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, n.Connect(NewConnection("elsewhere", "")))

	assert.Eventually(t, func() bool {
		status, _ := n.Status()
		return status == StatusFailed
	}, time.Second, 5*time.Millisecond)
}

func TestMockNetworkRejectsUnknownConnection(t *testing.T) {
	n := NewMockNetwork(&MockConfig{})

	err := n.Connect(struct{}{})
	assert.Error(t, err)
	assert.Empty(t, n.Connections())
}
