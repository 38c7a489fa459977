package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"character-quiz-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startButtonText = "Начать"
	menuText        = "Нажмите 'Начать', чтобы запустить тест."
	finishedText    = "Тест завершен. Вы можете пройти его снова, нажав 'Начать'."
	welcomeText     = "🧙‍♂️ Добро пожаловать в тест: *Кто ты из Гарри Поттера?*\n\nОтветь на несколько вопросов и узнай, кем бы ты был в волшебном мире!"
	donateText      = "💖 Спасибо за поддержку!"
)

// renderer turns directives into Telegram messages for one chat. The message
// the user interacted with is deleted before the next question or result.
type renderer struct {
	bot       *Bot
	chatID    int64
	messageID int
}

func (r *renderer) emit(ctx context.Context, d domain.Directive) error {
	switch d.Kind {
	case domain.DirectiveShowQuestion:
		r.deleteOrigin()
		return r.question(d.Question)
	case domain.DirectiveShowResult:
		r.deleteOrigin()
		if err := r.result(d.Result); err != nil {
			return err
		}
		return r.bot.send(menuMessage(r.chatID, finishedText))
	case domain.DirectiveShowError:
		if err := r.bot.send(errorMessage(r.chatID, d.Error)); err != nil {
			return err
		}
		if d.Error.Kind == domain.KindNoOutcomesAvailable || d.Error.Kind == domain.KindUnknownOutcome {
			return r.bot.send(menuMessage(r.chatID, menuText))
		}
		return nil
	default:
		return fmt.Errorf("unsupported directive %q", d.Kind)
	}
}

func (r *renderer) deleteOrigin() {
	if r.messageID == 0 {
		return
	}
	if _, err := r.bot.api.Request(tgbotapi.NewDeleteMessage(r.chatID, r.messageID)); err != nil {
		r.bot.logger.Printf("warning: delete message %d in chat %d: %v", r.messageID, r.chatID, err)
	}
	r.messageID = 0
}

func (r *renderer) question(q *domain.QuestionView) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for i, label := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", answerPrefix, i)),
		))
	}

	msg := tgbotapi.NewMessage(r.chatID, fmt.Sprintf("❓ *Вопрос %d из %d:*\n\n%s", q.Index+1, q.Total, q.Prompt))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return r.bot.send(msg)
}

func (r *renderer) result(res *domain.ResultView) error {
	caption := fmt.Sprintf("🧙‍♀️ *Ты — %s!*\n\n_%s_", res.Name, res.Description)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Пройти ещё раз", callbackRestart)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Поддержать автора", callbackDonate)),
	)
	return r.bot.sendPhotoOrText(r.chatID, res.Image, caption, keyboard)
}

// sendPhotoOrText sends image from the assets dir with caption, or the caption
// alone with a short note when the image is missing or fails to upload.
func (b *Bot) sendPhotoOrText(chatID int64, image, caption string, markup interface{}) error {
	path := filepath.Join(b.opts.AssetsDir, image)
	if image == "" {
		return b.send(textMessage(chatID, caption, markup))
	}
	if _, err := os.Stat(path); err != nil {
		b.logger.Printf("image %s not found: %v", path, err)
		return b.send(textMessage(chatID, caption+" (Изображение не найдено)", markup))
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	photo.ReplyMarkup = markup
	if err := b.send(photo); err != nil {
		b.logger.Printf("send photo %s: %v", path, err)
		return b.send(textMessage(chatID, caption+" (Произошла ошибка при отправке изображения)", markup))
	}
	return nil
}

func textMessage(chatID int64, text string, markup interface{}) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup
	return msg
}

func errorMessage(chatID int64, view *domain.ErrorView) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, view.Message)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Начать заново", callbackStartQuiz)),
	)
	return msg
}

func menuMessage(chatID int64, text string) tgbotapi.MessageConfig {
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(startButtonText)))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return msg
}

func welcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Начать тест", callbackStartQuiz)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Поддержать автора", callbackDonate)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Об авторе", callbackAbout)),
	)
}
