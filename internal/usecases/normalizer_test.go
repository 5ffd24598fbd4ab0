package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeConversationMessage(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"event": "messages.upsert",
		"data": {
			"key": {"id": "ABC123", "remoteJid": "5511999990000@s.whatsapp.net", "fromMe": false},
			"message": {"conversation": "oi, tudo bem?"}
		}
	}`)

	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "loja01", msg.Instance)
	assert.Equal(t, "ABC123", msg.MessageID)
	assert.Equal(t, "5511999990000", msg.Sender)
	assert.Equal(t, "oi, tudo bem?", msg.Text)
	assert.False(t, msg.IsFromSelf)
	assert.False(t, msg.IsGroup)
}

func TestNormalizeBadJSON(t *testing.T) {
	_, err := Normalize([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNormalizeGroupJid(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"data": {"key": {"id": "G1", "remoteJid": "123456-789@g.us"}, "message": {"conversation": "olá grupo"}}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, msg.IsGroup)
}

func TestNormalizeListReplyPrefersRowId(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"data": {
			"key": {"id": "L1", "remoteJid": "5511999990000@c.us"},
			"message": {"listResponseMessage": {"title": "Vendas", "singleSelectReply": {"selectedRowId": "ROW_2"}}}
		}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "ROW_2", msg.Text)
	assert.Equal(t, "5511999990000", msg.Sender)
}

func TestNormalizeButtonReplyFallsBackToId(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"data": {
			"key": {"id": "B1", "remoteJid": "5511999990000@s.whatsapp.net"},
			"message": {"buttonsResponseMessage": {"selectedButtonId": "BTN_YES"}}
		}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "BTN_YES", msg.Text)
}

func TestNormalizeMediaCaption(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"data": {
			"key": {"id": "M1", "remoteJid": "5511999990000@s.whatsapp.net"},
			"message": {"imageMessage": {"caption": "segue a foto do produto"}}
		}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "segue a foto do produto", msg.Text)
}

func TestNormalizeMessagesArrayVariant(t *testing.T) {
	raw := []byte(`{
		"instanceId": "loja02",
		"data": {"messages": [{"key": {"id": "X9", "remoteJid": "whatsapp:5511888887777"}, "message": {"conversation": "menu"}}]}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "loja02", msg.Instance)
	assert.Equal(t, "X9", msg.MessageID)
	assert.Equal(t, "5511888887777", msg.Sender)
	assert.Equal(t, "menu", msg.Text)
}

func TestNormalizeStatusUpdate(t *testing.T) {
	raw := []byte(`{
		"instance": "loja01",
		"data": {"key": {"id": "S1", "remoteJid": "5511999990000@s.whatsapp.net"}, "status": "read"}
	}`)
	msg, err := Normalize(raw)
	require.NoError(t, err)
	assert.Empty(t, msg.Text)
	assert.Equal(t, "READ", msg.DeliveryStatus)
}
