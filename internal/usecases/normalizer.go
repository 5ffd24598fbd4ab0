package usecases

import (
	"encoding/json"
	"fmt"
	"strings"

	"project_waAgent/internal/entities"
)

// Normalize parses a provider-shaped webhook body into the canonical inbound
// message. It is intentionally forgiving: known payload variants with missing
// pieces produce a best-effort record with empty fields (downstream filtering
// treats those as noise). Only wholly-unparseable JSON is an error.
func Normalize(raw []byte) (entities.InboundMessage, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return entities.InboundMessage{}, fmt.Errorf("decode webhook body: %w", err)
	}

	var msg entities.InboundMessage
	msg.Instance = firstNonEmpty(jsonStr(root["instance"]), jsonStr(root["instanceId"]))

	data, _ := root["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	// Some gateways wrap the event in data.messages[0].
	if arr, ok := data["messages"].([]any); ok && len(arr) > 0 {
		if m, ok := arr[0].(map[string]any); ok {
			data = m
		}
	}
	key, _ := data["key"].(map[string]any)

	msg.MessageID = firstNonEmpty(jsonStr(key["id"]), jsonStr(data["messageId"]), jsonStr(data["id"]))

	rawJid := firstNonEmpty(jsonStr(key["remoteJid"]), jsonStr(data["remoteJid"]), jsonStr(data["from"]))
	msg.IsGroup = strings.Contains(rawJid, "@g.us")
	msg.Sender = cleanNumber(rawJid)

	msg.Text = extractText(data)
	msg.IsFromSelf = jsonBool(key["fromMe"]) || jsonBool(data["fromMe"])
	msg.EventKind = firstNonEmpty(jsonStr(root["event"]), jsonStr(data["event"]))
	msg.DeliveryStatus = strings.ToUpper(firstNonEmpty(jsonStr(data["status"]), jsonStr(root["status"])))

	return msg, nil
}

// extractText resolves the message text by priority: plain conversation text,
// extended/long text, button reply (display text then id), list reply (row id
// then title), media caption. Empty string means "nothing usable".
func extractText(data map[string]any) string {
	message, _ := data["message"].(map[string]any)
	if message == nil {
		message = data
	}

	if t := jsonStr(message["conversation"]); t != "" {
		return t
	}
	if ext, ok := message["extendedTextMessage"].(map[string]any); ok {
		if t := jsonStr(ext["text"]); t != "" {
			return t
		}
	}
	if btn, ok := message["buttonsResponseMessage"].(map[string]any); ok {
		if t := firstNonEmpty(jsonStr(btn["selectedDisplayText"]), jsonStr(btn["selectedButtonId"])); t != "" {
			return t
		}
	}
	if list, ok := message["listResponseMessage"].(map[string]any); ok {
		if sel, ok := list["singleSelectReply"].(map[string]any); ok {
			if t := jsonStr(sel["selectedRowId"]); t != "" {
				return t
			}
		}
		if t := jsonStr(list["title"]); t != "" {
			return t
		}
	}
	for _, k := range []string{"imageMessage", "videoMessage", "documentMessage"} {
		if media, ok := message[k].(map[string]any); ok {
			if t := jsonStr(media["caption"]); t != "" {
				return t
			}
		}
	}
	return ""
}

// cleanNumber strips gateway addressing noise from a remote identifier.
func cleanNumber(jid string) string {
	jid = strings.TrimPrefix(strings.TrimSpace(jid), "whatsapp:")
	jid = strings.TrimSuffix(jid, "@s.whatsapp.net")
	jid = strings.TrimSuffix(jid, "@c.us")
	return jid
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func jsonStr(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func jsonBool(v any) bool {
	b, _ := v.(bool)
	return b
}
