package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/alumtrack/internal/domain/inventory"
	"github.com/Spok95/alumtrack/internal/export"
	"github.com/Spok95/alumtrack/internal/importer"
	"github.com/Spok95/alumtrack/internal/infra/metrics"
)

const helpText = `Команды:
/summary - остатки на складе по маркам
/optimize 2025-03 - план расхода партий на месяц
/plan 2025-03 - тот же план в Excel
Без месяца берётся текущий.

Админ может прислать CSV или XLSX с закупками: колонки alloy_type, purity, quantity_kg, price_per_kg, purchase_date (supplier, notes - по желанию).`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.reply(chatID, "Привет! Я считаю, из каких партий сплава выгоднее закрыть план продаж.\n\n"+helpText)
	case "help":
		b.reply(chatID, helpText)
	case "summary":
		b.sendSummary(ctx, chatID)
	case "optimize":
		b.sendPlan(ctx, chatID, msg.CommandArguments())
	case "plan":
		b.sendPlanXLSX(ctx, chatID, msg.CommandArguments())
	default:
		b.reply(chatID, "Неизвестная команда. /help - список команд.")
	}
}

func (b *Bot) handleButton(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Text {
	case btnSummary:
		b.sendSummary(ctx, chatID)
	case btnOptimize:
		b.sendPlan(ctx, chatID, "")
	case btnPlanXLSX:
		b.sendPlanXLSX(ctx, chatID, "")
	case btnImport:
		if chatID != b.adminChat {
			b.reply(chatID, "Загрузка закупок доступна только администратору.")
			return
		}
		b.reply(chatID, "Пришлите CSV или XLSX-файл с закупками.")
	default:
		b.reply(chatID, "Не понял. /help - список команд.")
	}
}

func (b *Bot) sendSummary(ctx context.Context, chatID int64) {
	stock, err := b.stock.ListInStock(ctx)
	if err != nil {
		b.log.Error("list stock", "err", err)
		b.reply(chatID, "Не удалось получить остатки.")
		return
	}
	b.reply(chatID, formatSummary(inventory.Summarize(stock)))
}

func (b *Bot) sendPlan(ctx context.Context, chatID int64, arg string) {
	p, err := periodArg(arg, b.now())
	if err != nil {
		b.reply(chatID, "Месяц не распознан. Пример: /optimize 2025-03")
		return
	}
	res, err := b.planner.Optimize(ctx, p)
	if err != nil {
		b.log.Error("optimize", "period", p.String(), "err", err)
		b.reply(chatID, "Не удалось рассчитать план.")
		return
	}
	b.reply(chatID, formatPlan(p, res))
}

func (b *Bot) sendPlanXLSX(ctx context.Context, chatID int64, arg string) {
	p, err := periodArg(arg, b.now())
	if err != nil {
		b.reply(chatID, "Месяц не распознан. Пример: /plan 2025-03")
		return
	}
	res, err := b.planner.Optimize(ctx, p)
	if err != nil {
		b.log.Error("optimize", "period", p.String(), "err", err)
		b.reply(chatID, "Не удалось рассчитать план.")
		return
	}
	data, err := export.PlanXLSX(p.String(), res)
	if err != nil {
		b.log.Error("plan xlsx", "period", p.String(), "err", err)
		b.reply(chatID, "Не удалось сформировать файл.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("plan_%s.xlsx", p.String()),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("План на %s", p.String())
	b.send(doc)
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if chatID != b.adminChat {
		b.reply(chatID, "Загрузка закупок доступна только администратору.")
		return
	}

	data, err := b.downloadTelegramFile(msg.Document.FileID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Не удалось скачать файл из Telegram: "+err.Error()))
		return
	}

	ins, err := importer.Parse(msg.Document.FileName, data)
	if err != nil {
		b.reply(chatID, importErrorText(err))
		return
	}
	n, err := b.stock.CreateMany(ctx, ins)
	if err != nil {
		b.log.Error("import purchases", "file", msg.Document.FileName, "err", err)
		b.reply(chatID, "Не удалось сохранить закупки.")
		return
	}
	metrics.PurchasesImported.WithLabelValues("telegram").Add(float64(n))
	b.log.Info("purchases imported", "file", msg.Document.FileName, "rows", n)
	b.reply(chatID, fmt.Sprintf("Загружено закупок: %d", n))
}

func importErrorText(err error) string {
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return "Нужен файл CSV или Excel (.xlsx)."
	}
	var re *importer.RowError
	if errors.As(err, &re) {
		return fmt.Sprintf("Ошибка в строке %d: %v. Ничего не загружено.", re.Row, re.Err)
	}
	return "Файл не разобран: " + err.Error()
}
