package i18n

import "golang.org/x/text/language"

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown          = "UNKNOWN"
	CodeSessionIDMissing = "SESSION_ID_MISSING"
	CodeSessionIDInvalid = "SESSION_ID_INVALID"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeRoomClosed       = "ROOM_CLOSED"
	CodeRevealInProgress = "REVEAL_IN_PROGRESS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidRole      = "INVALID_ROLE"
	CodeAlreadyJoined    = "ALREADY_JOINED"
	CodeInvalidFrame     = "INVALID_FRAME"
	CodeRateLimited      = "RATE_LIMITED"
)

var enUSMessages = map[Code]string{
	CodeUnknown:          "Something went wrong. Please try again.",
	CodeSessionIDMissing: "A session id is required.",
	CodeSessionIDInvalid: "Session ids must be at most {{.Max}} characters.",
	CodeSessionNotFound:  "Session {{.SessionID}} does not exist. Ask an observer to create it first.",
	CodeAlreadyExists:    "Session {{.SessionID}} already exists.",
	CodeRoomClosed:       "Session {{.SessionID}} has just ended.",
	CodeRevealInProgress: "Votes are currently revealed. Please reload and try again once the round is reset.",
	CodeUnauthorized:     "Only observers can reset the round.",
	CodeInvalidRole:      "Role {{.Role}} is not valid. Choose observer or estimator.",
	CodeAlreadyJoined:    "This connection already joined session {{.SessionID}}.",
	CodeInvalidFrame:     "The message could not be understood.",
	CodeRateLimited:      "Too many messages. Slow down.",
}

var ptBRMessages = map[Code]string{
	CodeUnknown:          "Algo deu errado. Tente novamente.",
	CodeSessionIDMissing: "É necessário informar o id da sessão.",
	CodeSessionIDInvalid: "O id da sessão deve ter no máximo {{.Max}} caracteres.",
	CodeSessionNotFound:  "A sessão {{.SessionID}} não existe. Peça para um observador criá-la primeiro.",
	CodeAlreadyExists:    "A sessão {{.SessionID}} já existe.",
	CodeRoomClosed:       "A sessão {{.SessionID}} acabou de ser encerrada.",
	CodeRevealInProgress: "Os votos estão revelados. Recarregue e tente novamente após reiniciar a rodada.",
	CodeUnauthorized:     "Apenas observadores podem reiniciar a rodada.",
	CodeInvalidRole:      "O papel {{.Role}} não é válido. Escolha observer ou estimator.",
	CodeAlreadyJoined:    "Esta conexão já entrou na sessão {{.SessionID}}.",
	CodeInvalidFrame:     "A mensagem não pôde ser interpretada.",
	CodeRateLimited:      "Mensagens demais. Vá com calma.",
}

func init() {
	register(language.AmericanEnglish, enUSMessages)
	register(language.BrazilianPortuguese, ptBRMessages)
}
