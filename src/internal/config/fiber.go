package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

func NewFiber(v *viper.Viper) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      v.GetString("app.name"),
		Prefork:      v.GetBool("web.prefork"),
		ReadTimeout:  v.GetDuration("web.read_timeout"),
		WriteTimeout: v.GetDuration("web.write_timeout"),
	})
}

func NewValidator(v *viper.Viper) *validator.Validate {
	return validator.New()
}
