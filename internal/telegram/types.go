package telegram

import "fmt"

// Command представляет команду бота
type Command string

const (
	CmdStart     Command = "start"
	CmdHelp      Command = "help"
	CmdBalance   Command = "balance"
	CmdBuy       Command = "buy"
	CmdMyProxies Command = "myproxies"
	CmdCredit    Command = "credit"
	CmdFreeze    Command = "freeze"
	CmdUnfreeze  Command = "unfreeze"
	CmdInfo      Command = "info"
	CmdServices  Command = "services"
	CmdOS        Command = "os"
	CmdRecipes   Command = "recipes"
	CmdCtl       Command = "ctl"
	CmdPasswd    Command = "passwd"
	CmdJournal   Command = "journal"
)

func (c Command) String() string {
	return string(c)
}

func (c Command) IsValid() bool {
	switch c {
	case CmdStart, CmdHelp, CmdBalance, CmdBuy, CmdMyProxies,
		CmdCredit, CmdFreeze, CmdUnfreeze, CmdInfo, CmdServices,
		CmdOS, CmdRecipes, CmdCtl, CmdPasswd, CmdJournal:
		return true
	}
	return false
}

func (c Command) IsAdminOnly() bool {
	switch c {
	case CmdCredit, CmdFreeze, CmdUnfreeze, CmdInfo, CmdServices,
		CmdOS, CmdRecipes, CmdCtl, CmdPasswd, CmdJournal:
		return true
	}
	return false
}

// Term представляет период заказа
type Term string

const (
	TermHour  Term = "hour"
	TermMonth Term = "month"
)

func (t Term) String() string {
	return string(t)
}

func (t Term) IsValid() bool {
	switch t {
	case TermHour, TermMonth:
		return true
	}
	return false
}

func (t Term) DisplayName() string {
	switch t {
	case TermHour:
		return "час"
	case TermMonth:
		return "месяц"
	}
	return "неизвестный период"
}

// CallbackPrefix представляет префиксы callback данных
type CallbackPrefix string

const (
	CallbackBuyProduct CallbackPrefix = "buy_product_"
	CallbackBuyTerm    CallbackPrefix = "buy_term_"
	CallbackBuyConfirm CallbackPrefix = "buy_confirm_"
	CallbackBuyCancel  CallbackPrefix = "buy_cancel_"
	CallbackProxyDel   CallbackPrefix = "proxy_del_"
)

func (c CallbackPrefix) String() string {
	return string(c)
}

func (c CallbackPrefix) WithID(id interface{}) string {
	return string(c) + fmt.Sprintf("%v", id)
}

// BuyStep представляет шаг процесса покупки
type BuyStep string

const (
	BuyStepProduct BuyStep = "product"
	BuyStepTerm    BuyStep = "term"
	BuyStepConfirm BuyStep = "confirm"
)

func (s BuyStep) String() string {
	return string(s)
}

func (s BuyStep) IsValid() bool {
	switch s {
	case BuyStepProduct, BuyStepTerm, BuyStepConfirm:
		return true
	}
	return false
}

func (s BuyStep) Next() BuyStep {
	switch s {
	case BuyStepProduct:
		return BuyStepTerm
	case BuyStepTerm:
		return BuyStepConfirm
	}
	return s
}
