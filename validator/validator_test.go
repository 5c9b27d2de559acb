package validator_test

import (
	"errors"
	"testing"

	"github.com/andyle182810/cryptoqa/validator"
	gvalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type coin struct {
	ID     int             `json:"id"     validate:"gt=0"`
	Name   string          `json:"name"   validate:"required"`
	Symbol string          `json:"symbol" validate:"required,symbol"`
	Price  decimal.Decimal `json:"price"  validate:"gte=0"`
}

type apiSettings struct {
	BaseURL  string `yaml:"base_url" validate:"required,http_url"`
	Convert  string `yaml:"convert"  validate:"required,currency"`
	Attempts int    `yaml:"attempts" validate:"gte=1,lte=10"`
}

type settings struct {
	LogLevel string      `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	API      apiSettings `yaml:"api"`
}

func validCoin() coin {
	return coin{ID: 1, Name: "Bitcoin", Symbol: "BTC", Price: decimal.RequireFromString("65000.12")}
}

func requireValidationErrors(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()

	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	return validationErrs
}

func TestNew_UsesRequestedTagName(t *testing.T) {
	t.Parallel()

	require.Equal(t, validator.TagJSON, validator.Payload().TagName())
	require.Equal(t, validator.TagYAML, validator.Config().TagName())
	require.NotNil(t, validator.Payload().Validator)
}

func TestValidate_Success(t *testing.T) {
	t.Parallel()

	require.NoError(t, validator.Payload().Validate(validCoin()))
}

func TestValidate_RequiredFieldMissing(t *testing.T) {
	t.Parallel()

	input := validCoin()
	input.Name = ""

	errs := requireValidationErrors(t, validator.Payload().Validate(input))

	require.Len(t, errs, 1)
	require.Equal(t, "name", errs[0].Field)
	require.Equal(t, "required", errs[0].Tag)
	require.Equal(t, "name is required", errs[0].Message)
}

func TestValidate_NegativeDecimalRejected(t *testing.T) {
	t.Parallel()

	input := validCoin()
	input.Price = decimal.RequireFromString("-0.01")

	errs := requireValidationErrors(t, validator.Payload().Validate(input))

	require.Len(t, errs, 1)
	require.Equal(t, "price", errs[0].Field)
	require.Equal(t, "gte", errs[0].Tag)
	require.Equal(t, "price must be greater than or equal to 0", errs[0].Message)
}

func TestValidate_ZeroDecimalAccepted(t *testing.T) {
	t.Parallel()

	input := validCoin()
	input.Price = decimal.Zero

	require.NoError(t, validator.Payload().Validate(input))
}

func TestValidate_SymbolFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		symbol string
		valid  bool
	}{
		{name: "plain ticker", symbol: "BTC", valid: true},
		{name: "numeric ticker", symbol: "1INCH", valid: true},
		{name: "lower case", symbol: "btc", valid: false},
		{name: "with space", symbol: "BT C", valid: false},
		{name: "too long", symbol: "ABCDEFGHIJKLMNOPQRSTU", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validCoin()
			input.Symbol = tt.symbol

			err := validator.Payload().Validate(input)
			if tt.valid {
				require.NoError(t, err)

				return
			}

			errs := requireValidationErrors(t, err)
			require.Equal(t, "symbol", errs[0].Field)
			require.Equal(t, "symbol must be an upper-case ticker symbol", errs[0].Message)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	errs := requireValidationErrors(t, validator.Payload().Validate(coin{
		ID:     0,
		Name:   "",
		Symbol: "",
		Price:  decimal.Zero,
	}))

	require.ElementsMatch(t, []string{"id", "name", "symbol"}, errs.Fields())
	require.Contains(t, errs.Error(), "id must be greater than 0")
	require.Contains(t, errs.Error(), "name is required")
}

func TestValidate_NestedYAMLFieldPath(t *testing.T) {
	t.Parallel()

	input := settings{
		LogLevel: "info",
		API:      apiSettings{BaseURL: "not a url", Convert: "usd", Attempts: 0},
	}

	errs := requireValidationErrors(t, validator.Config().Validate(input))

	require.ElementsMatch(t, []string{"api.base_url", "api.convert", "api.attempts"}, errs.Fields())

	for _, e := range errs {
		switch e.Field {
		case "api.base_url":
			require.Equal(t, "api.base_url must be a valid HTTP URL", e.Message)
		case "api.convert":
			require.Equal(t, "api.convert must be an upper-case currency code", e.Message)
		case "api.attempts":
			require.Equal(t, "api.attempts must be greater than or equal to 1", e.Message)
		}
	}
}

func TestValidate_OneOf(t *testing.T) {
	t.Parallel()

	input := settings{
		LogLevel: "verbose",
		API:      apiSettings{BaseURL: "https://pro-api.coinmarketcap.com", Convert: "USD", Attempts: 3},
	}

	errs := requireValidationErrors(t, validator.Config().Validate(input))

	require.Len(t, errs, 1)
	require.Equal(t, "log_level must be one of [trace debug info warn error]", errs[0].Message)
}

func TestValidateAll_PrefixesIndex(t *testing.T) {
	t.Parallel()

	bad := validCoin()
	bad.Symbol = ""

	err := validator.ValidateAll(validator.Payload(), []coin{validCoin(), bad})

	errs := requireValidationErrors(t, err)
	require.Equal(t, []string{"[1].symbol"}, errs.Fields())
}

func TestValidateAll_EmptyAndValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, validator.ValidateAll(validator.Payload(), []coin{}))
	require.NoError(t, validator.ValidateAll(validator.Payload(), []coin{validCoin(), validCoin()}))
}

func TestRegisterCustomValidation(t *testing.T) {
	t.Parallel()

	type pair struct {
		Market string `json:"market" validate:"pair"`
	}

	v := validator.Payload()
	err := v.RegisterCustomValidation("pair", func(fl gvalidator.FieldLevel) bool {
		return fl.Field().String() == "BTC/USD"
	})
	require.NoError(t, err)

	require.NoError(t, v.Validate(pair{Market: "BTC/USD"}))

	errs := requireValidationErrors(t, v.Validate(pair{Market: "BTC-USD"}))
	require.Equal(t, "market failed validation on 'pair'", errs[0].Message)
}

func TestValidate_NonStructReturnsError(t *testing.T) {
	t.Parallel()

	err := validator.Payload().Validate("not a struct")

	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.False(t, errors.As(err, &validationErrs))
}
