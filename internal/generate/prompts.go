package generate

import (
	"context"

	"github.com/hpungsan/slidecraft/internal/deck"
)

// Names of the system instructions an admin can override.
const (
	PromptDeckOutline  = "deck_outline"
	PromptTransform    = "text_transform"
	PromptImageSuggest = "image_suggest"
)

const deckOutlineInstruction = "Ты - профессиональный дизайнер презентаций. Твоя задача — создать структуру для презентации на заданную тему. " +
	"Сгенерируй от 4 до 7 слайдов. " +
	"Презентация должна иметь логическую структуру: введение, несколько слайдов с основной информацией и заключение. " +
	"Для каждого слайда предоставь: 'Название слайда', 'Текст слайда' и 'Картинка слайда' (это должен быть короткий, емкий промпт на русском языке для нейросети, которая будет рисовать изображение). " +
	"Ответ должен быть в строгом формате, без лишних слов. Перед каждым слайдом обязательно пиши 'Слайд x'." +
	"Тебе запрещено использовать MarkDown разметку"

const transformInstruction = "Ты - редактор текстов для слайдов презентации. " +
	"Перепиши текст пользователя согласно его указанию, сохранив смысл и язык оригинала. " +
	"Верни только итоговый текст, без пояснений, кавычек и MarkDown разметки."

const imageSuggestInstruction = "Ты помогаешь подобрать иллюстрацию к слайду презентации. " +
	"По тексту слайда составь один короткий, емкий промпт на русском языке для нейросети, которая будет рисовать изображение. " +
	"Верни только промпт, без пояснений, кавычек и MarkDown разметки."

var builtins = []deck.Prompt{
	{Name: PromptDeckOutline, Description: "Структура презентации по теме", Text: deckOutlineInstruction},
	{Name: PromptTransform, Description: "Переписать текст по указанию", Text: transformInstruction},
	{Name: PromptImageSuggest, Description: "Промпт для картинки по тексту слайда", Text: imageSuggestInstruction},
}

// Builtins returns the built-in instructions in a stable order.
func Builtins() []deck.Prompt {
	out := make([]deck.Prompt, len(builtins))
	copy(out, builtins)
	return out
}

// Builtin returns the built-in instruction for name.
func Builtin(name string) (deck.Prompt, bool) {
	for _, p := range builtins {
		if p.Name == name {
			return p, true
		}
	}
	return deck.Prompt{}, false
}

// PromptSource looks up admin overrides. ok is false when none is stored.
type PromptSource interface {
	Override(ctx context.Context, name string) (text string, ok bool, err error)
}

// builtinOnly never overrides.
type builtinOnly struct{}

func (builtinOnly) Override(context.Context, string) (string, bool, error) { return "", false, nil }
