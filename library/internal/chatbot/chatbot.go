package chatbot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/errs"
	"github.com/Astemirdum/library-assistant/library/internal/model"
	"github.com/Astemirdum/library-assistant/pkg/metrics"
)

type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Librarian is the part of the library service the assistant borrows through.
type Librarian interface {
	GetBook(ctx context.Context, id int64) (model.Book, error)
	FindBookByTitle(ctx context.Context, title string) (model.Book, error)
	Borrow(ctx context.Context, bookID, userID int64) (model.BorrowResult, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type Intent string

const (
	IntentReturn Intent = "return"
	IntentBorrow Intent = "borrow"
	IntentQA     Intent = "qa"
	IntentOther  Intent = "other"
)

const (
	ReturnMessage  = "The library assistant cannot process book returns. A librarian has to confirm the book is back, so please bring it to the front desk. Thank you."
	UnclearMessage = "I could not understand your question. Please state clearly what you would like to do."
	NoTitleMessage = "Please provide the ID or title of the book you want to borrow."
)

var returnKeywords = []string{"歸還", "還書", "return book", "return the book", "return my book", "return a book"}

var bookIDPattern = regexp.MustCompile(`(?i)ID\s?(\d+)`)

var titleTrimmer = strings.NewReplacer("《", "", "》", "", "「", "", "」", "", "'", "", "\"", "", "“", "", "”", "")

type Assistant struct {
	llm     Generator
	library Librarian
	qa      Answerer
	log     *zap.Logger
}

func New(llm Generator, library Librarian, qa Answerer, log *zap.Logger) *Assistant {
	return &Assistant{
		llm:     llm,
		library: library,
		qa:      qa,
		log:     log.Named("chatbot"),
	}
}

// Reply answers a chat question. Return requests get a fixed message, otherwise the LLM
// classifies the question as a borrow or a general question. An error is returned only when
// the question could not be classified.
func (a *Assistant) Reply(ctx context.Context, question string) (model.ChatResponse, error) {
	if isReturnRequest(question) {
		metrics.RecordChatIntent(string(IntentReturn))
		return model.ChatResponse{Message: ReturnMessage}, nil
	}

	intent, err := a.classify(ctx, question)
	if err != nil {
		return model.ChatResponse{}, err
	}
	metrics.RecordChatIntent(string(intent))
	a.log.Debug("intent", zap.String("question", question), zap.String("intent", string(intent)))

	switch intent {
	case IntentBorrow:
		return a.borrow(ctx, question).response(), nil
	case IntentQA:
		answer, err := a.qa.Answer(ctx, question)
		if err != nil {
			a.log.Error("answer", zap.Error(err))
			return model.ChatResponse{Message: fmt.Sprintf("An error occurred while answering: %s", err)}, nil
		}
		return model.ChatResponse{Message: answer}, nil
	default:
		// bare titles are often classified as OTHER
		if out := a.borrow(ctx, question); out.ok {
			return out.response(), nil
		}
		return model.ChatResponse{Message: UnclearMessage}, nil
	}
}

func isReturnRequest(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range returnKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func (a *Assistant) classify(ctx context.Context, question string) (Intent, error) {
	reply, err := a.llm.Generate(ctx, intentPrompt, "Question: "+question)
	if err != nil {
		return "", err
	}
	reply = strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(reply, "BORROW"):
		return IntentBorrow, nil
	case strings.Contains(reply, "QA"):
		return IntentQA, nil
	default:
		return IntentOther, nil
	}
}

type borrowOutcome struct {
	message  string
	recordID int64
	ok       bool
}

func (o borrowOutcome) response() model.ChatResponse {
	return model.ChatResponse{Message: o.message, RecordID: o.recordID}
}

func (a *Assistant) borrow(ctx context.Context, question string) borrowOutcome {
	var bookID int64
	if m := bookIDPattern.FindStringSubmatch(question); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return borrowOutcome{message: fmt.Sprintf("Could not find a book with ID %s.", m[1])}
		}
		bookID = id
	} else {
		title, err := a.extractTitle(ctx, question)
		if err != nil {
			return borrowOutcome{message: fmt.Sprintf("An error occurred while borrowing: %s", err)}
		}
		if title == "" {
			return borrowOutcome{message: NoTitleMessage}
		}
		book, err := a.library.FindBookByTitle(ctx, title)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return borrowOutcome{message: fmt.Sprintf("Could not find a book titled '%s'.", title)}
			}
			return borrowOutcome{message: fmt.Sprintf("An error occurred while borrowing: %s", err)}
		}
		bookID = book.ID
	}

	res, err := a.library.Borrow(ctx, bookID, 0)
	switch {
	case err == nil:
		return borrowOutcome{
			message: fmt.Sprintf("Successfully borrowed '%s', due on %s.",
				res.Book.Title, res.Record.DueDate.Format("2006-01-02")),
			recordID: res.Record.ID,
			ok:       true,
		}
	case errors.Is(err, errs.ErrNotFound):
		return borrowOutcome{message: fmt.Sprintf("Could not find a book with ID %d.", bookID)}
	case errors.Is(err, errs.ErrConflict):
		book, getErr := a.library.GetBook(ctx, bookID)
		if getErr != nil {
			return borrowOutcome{message: fmt.Sprintf("An error occurred while borrowing: %s", getErr)}
		}
		return borrowOutcome{message: fmt.Sprintf("Sorry, '%s' is already borrowed.", book.Title)}
	default:
		a.log.Error("borrow", zap.Int64("book_id", bookID), zap.Error(err))
		return borrowOutcome{message: fmt.Sprintf("An error occurred while borrowing: %s", err)}
	}
}

// extractTitle asks the LLM for the book title. An empty string means no title was found.
func (a *Assistant) extractTitle(ctx context.Context, question string) (string, error) {
	reply, err := a.llm.Generate(ctx, titlePrompt, "User: "+question)
	if err != nil {
		return "", err
	}
	return cleanTitle(reply), nil
}

func cleanTitle(reply string) string {
	title := strings.TrimSpace(reply)
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	for _, prefix := range []string{"Title:", "title:", "書名:", "書名："} {
		title = strings.TrimPrefix(title, prefix)
	}
	title = strings.TrimSpace(titleTrimmer.Replace(title))
	if title == "無" || strings.EqualFold(title, "none") {
		return ""
	}
	return title
}
