// Пакет shell — навигационная оболочка страниц: меню по роли,
// выбранный пункт и заголовок по пути, состояние свёрнутой боковой панели.
// Всё выводится заново из (identity, path, state) на каждом запросе.
package shell

import (
	"net/url"
	"strings"

	"github.com/bigkaa/tender-portal/internal/domain/model"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
)

// Ключи пунктов меню.
const (
	KeyDashboard = "dashboard"
	KeyDocuments = "documents"
	KeyStatus    = "status"
	KeyUsers     = "users"
	KeyReports   = "reports"
)

// MenuEntry — пункт бокового меню.
type MenuEntry struct {
	// Key — ключ пункта (KeyDashboard, ...).
	Key string
	// LabelKey — ключ i18n подписи.
	LabelKey string
	// Path — адрес страницы.
	Path string
}

var (
	userMenu = []MenuEntry{
		{Key: KeyDashboard, LabelKey: "menu.dashboard", Path: rbac.CabinetPath},
		{Key: KeyDocuments, LabelKey: "menu.documents", Path: rbac.CabinetPath + "/documents"},
		{Key: KeyStatus, LabelKey: "menu.status", Path: rbac.CabinetPath + "/status"},
	}
	adminMenu = []MenuEntry{
		{Key: KeyDashboard, LabelKey: "menu.dashboard", Path: rbac.AdminPath},
		{Key: KeyUsers, LabelKey: "menu.users", Path: rbac.AdminPath + "/users"},
		{Key: KeyReports, LabelKey: "menu.reports", Path: rbac.AdminPath + "/reports"},
	}
)

// segment — правило выбора по подстроке пути.
type segment struct {
	key      string
	fragment string
}

// selectionOrder — порядок проверки; первое совпадение выигрывает.
var selectionOrder = []segment{
	{KeyDocuments, "/documents"},
	{KeyStatus, "/status"},
	{KeyUsers, "/users"},
	{KeyReports, "/reports"},
}

// MenuEntries возвращает меню для identity. Зависит только от роли;
// без identity (или с неизвестной ролью) меню пустое.
func MenuEntries(identity *model.Identity) []MenuEntry {
	if identity == nil {
		return nil
	}
	var src []MenuEntry
	switch identity.Role {
	case rbac.RoleUser:
		src = userMenu
	case rbac.RoleAdmin:
		src = adminMenu
	default:
		return nil
	}
	entries := make([]MenuEntry, len(src))
	copy(entries, src)
	return entries
}

// SelectedKey выводит выбранный пункт меню из пути. Чистая функция.
func SelectedKey(path string) string {
	for _, s := range selectionOrder {
		if strings.Contains(path, s.fragment) {
			return s.key
		}
	}
	return KeyDashboard
}

// PageTitleKey возвращает ключ i18n заголовка страницы.
// Для пунктов кроме dashboard — подпись пункта; иначе заголовок по роли.
func PageTitleKey(identity *model.Identity, path string) string {
	if identity == nil {
		return "title.app"
	}
	if key := SelectedKey(path); key != KeyDashboard {
		return "menu." + key
	}
	if identity.Role == rbac.RoleAdmin {
		return "title.admin"
	}
	return "title.cabinet"
}

// SiderParam — query-параметр состояния боковой панели.
const SiderParam = "sider"

// State — состояние боковой панели. Живёт только в ссылках оболочки:
// новая загрузка страницы без параметра начинается развёрнутой.
type State struct {
	Collapsed bool
}

// Toggle возвращает противоположное состояние.
func (s State) Toggle() State {
	return State{Collapsed: !s.Collapsed}
}

// StateFromRequest читает состояние из query-параметра sider.
func StateFromRequest(query url.Values) State {
	return State{Collapsed: query.Get(SiderParam) == "collapsed"}
}

// Link добавляет состояние к ссылке оболочки.
func (s State) Link(path string) string {
	if !s.Collapsed {
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(SiderParam, "collapsed")
	u.RawQuery = q.Encode()
	return u.String()
}

// Frame — всё, что нужно Layout для отрисовки оболочки вокруг контента.
type Frame struct {
	// Identity — текущий пользователь (nil для публичных страниц).
	Identity *model.Identity
	// Menu — пункты меню с уже подставленным состоянием в ссылках.
	Menu []MenuEntry
	// SelectedKey — выбранный пункт.
	SelectedKey string
	// TitleKey — ключ i18n заголовка.
	TitleKey string
	// Greeting — имя для приветствия (компания или email).
	Greeting string
	// State — текущее состояние боковой панели.
	State State
	// ToggleLink — ссылка на текущую страницу с противоположным состоянием.
	ToggleLink string
}

// Compose собирает оболочку страницы.
func Compose(identity *model.Identity, path string, state State) Frame {
	menu := MenuEntries(identity)
	for i := range menu {
		menu[i].Path = state.Link(menu[i].Path)
	}

	frame := Frame{
		Identity:    identity,
		Menu:        menu,
		SelectedKey: SelectedKey(path),
		TitleKey:    PageTitleKey(identity, path),
		State:       state,
		ToggleLink:  state.Toggle().Link(path),
	}
	if identity != nil {
		frame.Greeting = identity.DisplayName()
	}
	return frame
}
