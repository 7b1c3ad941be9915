package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/planning"
)

// Planner считает план расхода партий на месяц.
type Planner interface {
	Optimize(ctx context.Context, p planning.Period) (allocation.Result, error)
}

// Stock отдаёт остатки и пишет закупки из файла.
type Stock interface {
	ListInStock(ctx context.Context) ([]purchases.Purchase, error)
	CreateMany(ctx context.Context, ins []purchases.Input) (int64, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	adminChat int64
	planner   Planner
	stock     Stock
	now       func() time.Time
}

func New(api *tgbotapi.BotAPI, log *slog.Logger, adminChatID int64, planner Planner, stock Stock) *Bot {
	return &Bot{
		api: api, log: log, adminChat: adminChatID,
		planner: planner, stock: stock, now: time.Now,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = mainReplyKeyboard(chatID == b.adminChat)
	b.send(m)
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}
	b.handleButton(ctx, msg)
}

// downloadTelegramFile скачивает файл по FileID через Telegram API.
func (b *Bot) downloadTelegramFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
