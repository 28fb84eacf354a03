package app

import (
	"errors"

	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/remote"
)

// UserMessage 错误对应的界面提示
func UserMessage(err error) string {
	var ve *logic.ValidationError
	var nf *logic.NotFoundError
	switch {
	case errors.As(err, &ve):
		return "❌ " + ve.Message
	case logic.IsWarning(err):
		return "⚠️ Изменения сохранены только в памяти"
	case errors.As(err, &nf):
		if nf.Kind == "project" {
			return "❌ Проект не найден"
		}
		return "❌ Не найдено"
	case errors.Is(err, remote.ErrInvalidCredentials):
		return "❌ Неверный email или пароль"
	case errors.Is(err, logic.ErrAuthRequired):
		return "🔒 Войдите в систему"
	case errors.Is(err, logic.ErrInsufficientCoins):
		return "🪙 Недостаточно монет"
	case errors.Is(err, remote.ErrUnavailable):
		return "⚠️ Сервер недоступен, попробуйте позже"
	case errors.Is(err, ErrFeatureDisabled):
		return "Функция отключена"
	default:
		return "❌ Что-то пошло не так"
	}
}
