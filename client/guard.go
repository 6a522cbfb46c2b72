package client

// GuardDecision — исход проверки доступа к защищённой странице.
type GuardDecision int

const (
	// GuardWait — сессия ещё загружается; показать нейтральное ожидание.
	GuardWait GuardDecision = iota
	// GuardAllow — сессия активна; рендерить защищённый контент.
	GuardAllow
	// GuardRedirect — сессии нет; уводить на страницу входа.
	GuardRedirect
)

// GuardResult — решение guard-а. Для GuardRedirect заполнены To
// (страница входа) и ReturnTo (исходно запрошенный адрес, чтобы
// вернуть пользователя после входа).
type GuardResult struct {
	Decision GuardDecision
	To       string
	ReturnTo string
}

// Guard — гейт для страниц, требующих активной сессии.
type Guard struct {
	// LoginPath — адрес страницы входа для редиректа.
	LoginPath string
}

// Resolve принимает состояние сессии и запрошенный адрес.
// Пока сессия грузится — Wait (без преждевременного редиректа);
// аутентифицирован — Allow; иначе — Redirect на LoginPath
// с запомненным исходным адресом.
func (g Guard) Resolve(sess *Session, requested string) GuardResult {
	if sess.Loading() {
		return GuardResult{Decision: GuardWait}
	}

	if sess.State() == SessionAuthenticated {
		return GuardResult{Decision: GuardAllow}
	}

	return GuardResult{
		Decision: GuardRedirect,
		To:       g.LoginPath,
		ReturnTo: requested,
	}
}
