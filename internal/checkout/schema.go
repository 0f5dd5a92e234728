// Package checkout реализует сборку заказа и сценарий оформления:
// валидацию формы, оплату и передачу заказа на бекенд.
package checkout

// FormSchema описывает, какие поля формы присутствуют и обязательны в
// конкретном варианте страницы. Схема выбирается при создании сессии,
// а не определяется по наличию элементов в момент валидации.
type FormSchema struct {
	RequireLastName       bool
	RequirePhone          bool
	RequireTerms          bool
	RequireDataProcessing bool
	HasMarketing          bool
}

// OrderFormSchema — полная форма страницы заказа со всеми согласиями.
func OrderFormSchema() FormSchema {
	return FormSchema{
		RequireLastName:       true,
		RequirePhone:          true,
		RequireTerms:          true,
		RequireDataProcessing: true,
		HasMarketing:          true,
	}
}

// MinimalOrderFormSchema — сокращённый вариант страницы без телефона
// и блоков согласий.
func MinimalOrderFormSchema() FormSchema {
	return FormSchema{
		RequireLastName: true,
	}
}
