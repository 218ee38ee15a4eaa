package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender is the part of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Infra struct {
	bot         sender
	adminChatID int64
	log         *zap.Logger
}

// NewInfra: with a nil bot errors only go to the log.
func NewInfra(bot *tgbotapi.BotAPI, adminChatID int64, log *zap.Logger) *Infra {
	i := &Infra{adminChatID: adminChatID, log: log}
	if bot != nil {
		i.bot = bot
	}
	return i
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	i.log.Error("pdf_extract failure",
		zap.Error(err),
		zap.String("details", details),
	)

	if i.bot == nil {
		return nil
	}

	text := fmt.Sprintf(
		"❗ Ошибка в pdf_extract\n\nОшибка: %v\n\nДетали: %s",
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.adminChatID, text)); sendErr != nil {
		i.log.Warn("error_notificator send fail",
			zap.Int64("chat_id", i.adminChatID),
			zap.Error(sendErr),
		)
		return sendErr
	}

	return nil
}
