package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnSummary  = "Остатки"
	btnOptimize = "План на месяц"
	btnPlanXLSX = "План в Excel"
	btnImport   = "Загрузить закупки"
)

// mainReplyKeyboard Нижняя панель; загрузка закупок только у админа
func mainReplyKeyboard(admin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		{tgbotapi.NewKeyboardButton(btnSummary)},
		{tgbotapi.NewKeyboardButton(btnOptimize), tgbotapi.NewKeyboardButton(btnPlanXLSX)},
	}
	if admin {
		rows = append(rows, []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnImport)})
	}
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard:       rows,
	}
}
