package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/domain/user"
)

func TestNewMessage(t *testing.T) {
	msg, err := New(CreateParams{
		SenderID:    user.ID("alice"),
		RecipientID: user.ID("bob"),
		Body:        "  hi there  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", msg.Body)
	assert.Equal(t, KindText, msg.Kind)
	assert.False(t, msg.Seen)
	assert.Empty(t, msg.ID)
	assert.True(t, msg.CreatedAt.IsZero(), "creation time is assigned by the store")
}

func TestNewMessageAttachmentOnly(t *testing.T) {
	msg, err := New(CreateParams{
		SenderID:      user.ID("alice"),
		RecipientID:   user.ID("bob"),
		AttachmentURL: "https://cdn.example.com/pic.jpg",
		Kind:          KindImage,
	})
	require.NoError(t, err)
	assert.Empty(t, msg.Body)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", msg.AttachmentURL)
	assert.Equal(t, KindImage, msg.Kind)
}

func TestNewMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		params  CreateParams
		wantErr error
	}{
		{
			name:    "missing sender",
			params:  CreateParams{RecipientID: "bob", Body: "hi"},
			wantErr: ErrSenderRequired,
		},
		{
			name:    "missing recipient",
			params:  CreateParams{SenderID: "alice", Body: "hi"},
			wantErr: ErrRecipientRequired,
		},
		{
			name:    "self addressed",
			params:  CreateParams{SenderID: "alice", RecipientID: "alice", Body: "hi"},
			wantErr: ErrSelfAddressed,
		},
		{
			name:    "empty body and attachment",
			params:  CreateParams{SenderID: "alice", RecipientID: "bob", Body: "   "},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "unknown kind",
			params:  CreateParams{SenderID: "alice", RecipientID: "bob", Body: "hi", Kind: "audio"},
			wantErr: ErrInvalidKind,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNormalizeKindCaseInsensitive(t *testing.T) {
	msg, err := New(CreateParams{SenderID: "a", RecipientID: "b", Body: "x", Kind: " Video "})
	require.NoError(t, err)
	assert.Equal(t, KindVideo, msg.Kind)
}
