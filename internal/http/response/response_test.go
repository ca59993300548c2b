package response

import (
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
)

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	msg := "something went wrong"
	resp := Error(msg)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, msg, resp.Error)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Username string `validate:"required,alphanum"`
		Email    string `validate:"email"`
	}

	v := validator.New()
	ts := TestStruct{
		Username: "!!!",
		Email:    "not-an-email",
	}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Error)

	errMsg := resp.Error
	assert.Contains(t, errMsg, "field Username can contain only numbers and letters")
	assert.Contains(t, errMsg, "field Email must be a valid email")
}

func TestValidationErrorRequired(t *testing.T) {
	type TestStruct struct {
		Date string `validate:"required"`
	}

	v := validator.New()
	ts := TestStruct{}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Date is a required field")
}

// Тег datetime регистрируется обработчиками слотов самостоятельно;
// сообщение различает дату и время по layout из параметра тега.
func TestValidationErrorDatetime(t *testing.T) {
	type TestStruct struct {
		Date string `validate:"datetime=2006-01-02"`
		Time string `validate:"datetime=15:04"`
	}

	v := validator.New()
	err := v.RegisterValidation("datetime", func(fl validator.FieldLevel) bool {
		_, parseErr := time.Parse(fl.Param(), fl.Field().String())
		return parseErr == nil
	})
	assert.NoError(t, err)

	ts := TestStruct{
		Date: "10-09-2025",
		Time: "7pm",
	}

	err = v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Date can contain only date in format 2006-01-02")
	assert.Contains(t, resp.Error, "field Time can contain only time in format 15:04")

	ok := TestStruct{Date: "2025-09-10", Time: "19:00"}
	assert.NoError(t, v.Struct(ok))
}
