package logic

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages 面向用户的字段提示
var fieldMessages = map[string]string{
	"title":       "Укажите название проекта (не более 100 символов)",
	"description": "Добавьте описание проекта (не более 2000 символов)",
	"goal":        "Цель сбора должна быть от 1 до 1 000 000 ₽",
	"category":    "Выберите категорию проекта",
	"deadline":    "Срок должен быть от 1 до 365 дней",
	"image":       "Ссылка на изображение должна быть корректным URL",
	"email":       "Неверный формат email",
	"name":        "Имя не должно превышать 50 символов",
	"password":    "Пароль должен быть не менее 6 символов",
	"text":        "Комментарий не может быть пустым (не более 500 символов)",
}

// validateStruct 校验结构体，返回第一个字段错误
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldErrs[0].Field()
		msg, ok := fieldMessages[field]
		if !ok {
			msg = "Некорректное значение поля " + field
		}
		return newValidationError(field, msg)
	}
	return err
}

// validateEmail 校验邮箱格式
func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return newValidationError("email", fieldMessages["email"])
	}
	return nil
}
