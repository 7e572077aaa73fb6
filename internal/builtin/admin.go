package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/state"
)

// knownSettingKeys are the AdminSettings fields addressable by name; any
// other key falls through to the chat's free-form Extra map.
const (
	settingReplyOnParsingError = "replyOnParsingError"
	settingDisableServicePrefix = "disableServicePrefix"
	settingArgsOnlyCommand      = "argsOnlyCommand"
)

// settingsHandler gets or sets one AdminSettings field.
func settingsHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("builtin: settings called without handler context")
	}
	action, _ := args["action"].(string)
	key, _ := args["key"].(string)
	value, _ := args["value"].(string)

	switch action {
	case "get":
		return getSetting(hc.Chat, key), nil
	case "set":
		return setSetting(hc.Chat, key, value)
	default:
		return `Unknown action; use "get" or "set".`, nil
	}
}

func getSetting(chat *state.ChatState, key string) string {
	switch key {
	case settingReplyOnParsingError:
		return fmt.Sprintf("%s = %t", key, chat.AdminSettings.ReplyOnParsingError)
	case settingDisableServicePrefix:
		return fmt.Sprintf("%s = %q", key, chat.AdminSettings.DisableServicePrefix)
	case settingArgsOnlyCommand:
		if chat.AdminSettings.ArgsOnlyCommand == nil {
			return fmt.Sprintf("%s = (unset)", key)
		}
		c := chat.AdminSettings.ArgsOnlyCommand
		return fmt.Sprintf("%s = %s %s", key, c.Service, c.Command)
	default:
		if v, ok := chat.AdminSettings.Extra[key]; ok {
			return fmt.Sprintf("%s = %q", key, v)
		}
		return fmt.Sprintf("%s is not set.", key)
	}
}

func setSetting(chat *state.ChatState, key, value string) (string, error) {
	switch key {
	case settingReplyOnParsingError:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("invalid boolean value %q for %s", value, key)
		}
		chat.AdminSettings.ReplyOnParsingError = b
	case settingDisableServicePrefix:
		chat.AdminSettings.DisableServicePrefix = value
	case settingArgsOnlyCommand:
		if value == "" {
			chat.AdminSettings.ArgsOnlyCommand = nil
			break
		}
		parts := strings.Fields(value)
		if len(parts) != 2 {
			return "", fmt.Errorf("%s expects \"<service> <command>\"", key)
		}
		chat.AdminSettings.ArgsOnlyCommand = &state.ArgsOnlyCommand{Service: parts[0], Command: parts[1]}
	default:
		if chat.AdminSettings.Extra == nil {
			chat.AdminSettings.Extra = map[string]string{}
		}
		chat.AdminSettings.Extra[key] = value
	}
	return fmt.Sprintf("Set %s.", key), nil
}
