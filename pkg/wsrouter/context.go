package wsrouter

import "context"

type ctxKey int

const messageTypeKey ctxKey = iota

func GetMessageTypeFromCtx(ctx context.Context) string {
	messageType, _ := ctx.Value(messageTypeKey).(string)
	return messageType
}
