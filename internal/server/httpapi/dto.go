package httpapi

import (
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
)

// AccountView is the public JSON shape of an account. The password is never
// part of it.
type AccountView struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Status       bool        `json:"status"`
	CreationDate timex.Date  `json:"creationDate"`
	Birthday     *timex.Date `json:"birthday"`
	Token        string      `json:"token"`
}

func viewOf(acc *models.Account) AccountView {
	return AccountView{
		ID:           acc.ID,
		Username:     acc.Username,
		Status:       acc.Status,
		CreationDate: acc.CreationDate,
		Birthday:     acc.Birthday,
		Token:        acc.Token,
	}
}

func viewsOf(accs []*models.Account) []AccountView {
	views := make([]AccountView, 0, len(accs))
	for _, acc := range accs {
		views = append(views, viewOf(acc))
	}
	return views
}

type createRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Birthday *timex.Date `json:"birthday"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}
