package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"taskdeck/internal/model"
	"taskdeck/internal/session"
	"taskdeck/internal/state"
)

const (
	viewHeader   = "header"
	viewFooter   = "footer"
	viewMain     = "main"
	viewTodo     = "todo"
	viewProgress = "progress"
	viewDoneCol  = "doneCol"
	viewLogin    = "login"
	viewForm     = "form"
	viewHelp     = "help"
)

const requestTimeout = 30 * time.Second

var kanbanOrder = []model.TaskStatus{model.StatusToDo, model.StatusInProgress, model.StatusDone}

type UI struct {
	gui     *gocui.Gui
	session *session.Session
	state   *state.State
	loader  *state.Loader

	filter       taskFilter
	kanbanFocus  int
	kanbanSelect [3]int
	logsDate     time.Time

	// wfh and approvals render straight from these; they never enter the
	// shared cache.
	wfhRequests []model.WFHRequest
	approvals   []model.Approval

	form       *formState
	formEditor *formEditor

	helpActive bool
	status     string
}

type formKind string

const (
	formLogin formKind = "login"
	formTask  formKind = "task"
	formLog   formKind = "log"
)

type formState struct {
	kind   formKind
	fields []formField
	index  int

	// Assignee picker state for the task form.
	assigneeIndex   int
	chosenAssignees map[string]struct{}
}

type formEditor struct {
	ui *UI
}

func Run(sess *session.Session, st *state.State, loader *state.Loader) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &UI{
		gui:     gui,
		session: sess,
		state:   st,
		loader:  loader,
		filter:  filterAll,
	}
	ui.formEditor = &formEditor{ui: ui}
	loader.OnChange = func() {
		gui.Update(func(*gocui.Gui) error { return nil })
	}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if sess.Authenticated() {
		ui.loadView(st.CurrentView())
	} else {
		ui.openLoginForm()
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 't', gocui.ModNone, u.toggleAttendance); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'n', gocui.ModNone, u.openTaskForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'l', gocui.ModNone, u.openLogForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'o', gocui.ModNone, u.logout); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '1', gocui.ModNone, u.switchViewKey(state.ViewDashboard)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '2', gocui.ModNone, u.switchViewKey(state.ViewKanban)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '3', gocui.ModNone, u.switchViewKey(state.ViewCalendar)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '4', gocui.ModNone, u.switchViewKey(state.ViewTaskLogs)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '5', gocui.ModNone, u.switchViewKey(state.ViewWFH)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '6', gocui.ModNone, u.switchViewKey(state.ViewApprovals)); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.cycleFilter); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'h', gocui.ModNone, u.moveLeft); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyArrowLeft, gocui.ModNone, u.moveLeft); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyArrowRight, gocui.ModNone, u.moveRight); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '<', gocui.ModNone, u.moveTaskLeft); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '>', gocui.ModNone, u.moveTaskRight); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '[', gocui.ModNone, u.prevMonth); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", ']', gocui.ModNone, u.nextMonth); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'u', gocui.ModNone, u.cycleEmployee); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewLogin, gocui.KeyEnter, gocui.ModNone, u.submitLogin); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewLogin, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewLogin, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewLogin, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := maxY - 2
	if footerY1 < 1 {
		footerY1 = 1
	}
	footerY0 := footerY1 - 2
	if footerY0 < 1 {
		footerY0 = 1
	}
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	current := u.state.CurrentView()
	if current == state.ViewKanban {
		if err := u.layoutKanban(gui, bodyTop, bodyBottom, maxX); err != nil {
			return err
		}
	} else {
		for _, name := range []string{viewTodo, viewProgress, viewDoneCol} {
			_ = gui.DeleteView(name)
		}
		mainView, err := gui.SetView(viewMain, 0, bodyTop, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		applyViewStyle(mainView, true, false)
		mainView.Title = u.mainTitle(current)
		switch current {
		case state.ViewCalendar:
			u.renderCalendar(mainView)
		case state.ViewTaskLogs:
			u.renderTaskLogs(mainView)
		case state.ViewWFH:
			u.renderWFH(mainView)
		case state.ViewApprovals:
			u.renderApprovals(mainView)
		default:
			u.renderDashboard(mainView)
		}
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil && u.form.kind == formLogin {
		if err := u.showForm(gui, viewLogin, "Sign In"); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewLogin)
	}

	if u.form != nil && u.form.kind != formLogin {
		title := "New Task"
		if u.form.kind == formLog {
			title = "New Task Log"
		}
		if err := u.showForm(gui, viewForm, title); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		if current == state.ViewKanban {
			_, _ = gui.SetCurrentView(viewTodo)
		} else {
			_, _ = gui.SetCurrentView(viewMain)
		}
	}

	gui.Cursor = u.form != nil
	return nil
}

func (u *UI) layoutKanban(gui *gocui.Gui, bodyTop, bodyBottom, maxX int) error {
	_ = gui.DeleteView(viewMain)
	columns := groupTasksByStatus(u.visibleTasks())
	lists := [][]model.Task{columns.ToDo, columns.InProgress, columns.Done}
	names := []string{viewTodo, viewProgress, viewDoneCol}
	titles := []string{"To Do", "In Progress", "Done"}

	colWidth := maxX / 3
	if colWidth < 20 {
		colWidth = 20
	}
	for i, name := range names {
		x0 := i * colWidth
		x1 := x0 + colWidth - 1
		if i == len(names)-1 {
			x1 = maxX - 1
		}
		view, err := gui.SetView(name, x0, bodyTop, x1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		title := fmt.Sprintf("%d %s (%d)", i+1, titles[i], len(lists[i]))
		if i == 0 && columns.Unclassified > 0 {
			title = fmt.Sprintf("%s | %d unclassified", title, columns.Unclassified)
		}
		view.Title = title
		if u.kanbanSelect[i] >= len(lists[i]) {
			u.kanbanSelect[i] = max(len(lists[i])-1, 0)
		}
		applyViewStyle(view, u.kanbanFocus == i, true)
		u.renderTaskList(view, lists[i], u.kanbanSelect[i], u.kanbanFocus == i)
	}
	if gui.CurrentView() == nil || !u.inputActive() {
		_, _ = gui.SetCurrentView(names[u.kanbanFocus])
	}
	return nil
}

func (u *UI) mainTitle(view state.ViewID) string {
	switch view {
	case state.ViewCalendar:
		return fmt.Sprintf("3 Calendar %s", u.state.CalendarMonth().Format("January 2006"))
	case state.ViewTaskLogs:
		return "4 Task Performed"
	case state.ViewWFH:
		return "5 Work From Home"
	case state.ViewApprovals:
		return "6 Approvals"
	default:
		return "1 Dashboard"
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	user := u.state.User()
	if user == nil {
		fmt.Fprint(view, "taskdeck | signed out")
		return
	}
	attendance := "checked out"
	if u.state.CheckedIn() {
		attendance = "checked in"
	}
	fmt.Fprintf(view, "taskdeck | %s (%s) | %s | filter: %s", user.Name, user.Role, attendance, u.filter.Label())
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "1-6 views | r reload | t check in/out | n task | l log | f filter | o logout | ? help | q quit")
	fmt.Fprintln(view, "kanban: h/arrows column, j/k select, </> move | calendar: [/] month, arrows day, u employee")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderDashboard(view *gocui.View) {
	view.Clear()
	user := u.state.User()
	if user == nil {
		fmt.Fprint(view, "Sign in to load your dashboard")
		return
	}
	lines := dashboardLines(*user, u.state.Tasks(), u.state.TaskLogs(), u.state.Attendance(), time.Now())
	fmt.Fprint(view, strings.Join(lines, "\n"))
}

// dashboardLines builds the dashboard text. The recent lists mirror the
// server order unfiltered, capped at five entries each.
func dashboardLines(user model.User, tasks []model.Task, taskLogs []model.TaskLog, attendance *model.AttendanceStatus, now time.Time) []string {
	stats := calculateTaskStats(tasks, now)

	lines := []string{
		fmt.Sprintf("Welcome back, %s", user.Name),
		"",
		fmt.Sprintf("Tasks: %d total | %d to do | %d in progress | %d done | %d overdue",
			stats.Total, stats.ToDo, stats.InProgress, stats.Done, stats.Overdue),
	}

	if attendance == nil {
		lines = append(lines, "Attendance: unknown (press t to check in)")
	} else if attendance.IsCheckedIn {
		lines = append(lines, fmt.Sprintf("Attendance: checked in at %s (press t to check out)", attendance.CheckIn))
	} else {
		lines = append(lines, "Attendance: checked out (press t to check in)")
	}

	lines = append(lines, "", "Recent tasks:")
	recent := recentTasks(tasks)
	if len(recent) == 0 {
		lines = append(lines, "  no tasks yet")
	}
	for _, task := range recent {
		lines = append(lines, "  "+formatTaskSummary(task))
	}

	lines = append(lines, "", "Recent logs:")
	logs := recentLogs(taskLogs)
	if len(logs) == 0 {
		lines = append(lines, "  no logs yet")
	}
	for _, log := range logs {
		lines = append(lines, "  "+formatLogSummary(log))
	}

	return lines
}

func (u *UI) renderTaskList(view *gocui.View, tasks []model.Task, selected int, focused bool) {
	view.Clear()
	width, _ := view.Size()
	for i, task := range tasks {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		line := fmt.Sprintf("%s %s [%s] %s", prefix, clip(task.Title, max(width-18, 8)), task.Priority, formatAssignees(task.Assignees))
		fmt.Fprintln(view, clip(line, width))
	}
	if focused && len(tasks) > 0 {
		view.SetCursor(0, min(selected, len(tasks)-1))
	}
}

func (u *UI) renderCalendar(view *gocui.View) {
	view.Clear()
	width, _ := view.Size()
	month := u.state.CalendarMonth()
	cells := buildCalendarCells(month, u.state.Tasks(), u.state.TaskLogs(), u.state.EffectiveUserID())

	colWidth := width / 7
	if colWidth < 12 {
		colWidth = 12
	}

	selected := u.state.SelectedDate()
	header := ""
	for _, day := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		header += pad(day, colWidth)
	}
	fmt.Fprintln(view, header)

	for row := 0; row < len(cells); row += 7 {
		end := min(row+7, len(cells))
		week := cells[row:end]

		height := 1
		for _, cell := range week {
			lines := 1 + len(cell.Tasks) + len(cell.Logs)
			if cell.Overflow > 0 {
				lines++
			}
			if lines > height {
				height = lines
			}
		}

		for line := 0; line < height; line++ {
			out := ""
			for _, cell := range week {
				out += pad(calendarCellLine(cell, line, selected, colWidth-1), colWidth)
			}
			fmt.Fprintln(view, strings.TrimRight(out, " "))
		}
	}

	if selected != nil {
		fmt.Fprintln(view, "")
		fmt.Fprintf(view, "%s\n", selected.Format("Monday, January 2"))
		dayTasks := tasksForDate(u.state.Tasks(), *selected, u.state.EffectiveUserID())
		dayLogs := logsForDate(u.state.TaskLogs(), *selected)
		if len(dayTasks) == 0 && len(dayLogs) == 0 {
			fmt.Fprint(view, "  nothing scheduled")
		}
		for _, task := range dayTasks {
			fmt.Fprintln(view, "  task: "+formatTaskSummary(task))
		}
		for _, log := range dayLogs {
			fmt.Fprintln(view, "  log:  "+formatLogSummary(log))
		}
	}
}

func calendarCellLine(cell calendarCell, line int, selected *time.Time, width int) string {
	if cell.Day == 0 {
		return ""
	}
	if line == 0 {
		label := fmt.Sprintf("%2d", cell.Day)
		if selected != nil && model.SameDay(cell.Date, *selected) {
			label = fmt.Sprintf("[%d]", cell.Day)
		}
		return label
	}
	index := line - 1
	if index < len(cell.Tasks) {
		return clip("T "+cell.Tasks[index].Title, width)
	}
	index -= len(cell.Tasks)
	if index < len(cell.Logs) {
		return clip("L "+cell.Logs[index].Description, width)
	}
	if cell.Overflow > 0 {
		return overflowLabel(cell.Overflow)
	}
	return ""
}

func (u *UI) renderTaskLogs(view *gocui.View) {
	view.Clear()
	logs := u.state.TaskLogs()
	if len(logs) == 0 {
		fmt.Fprint(view, "No task logs yet. Press l to record one.")
		return
	}

	date := u.currentLogsDate()
	dayLogs := logsForDate(logs, date)
	total := 0
	for _, log := range dayLogs {
		total += log.DurationMinutes
	}
	fmt.Fprintf(view, "%s (h/arrows to change day) | %d logs | %s\n", date.Format("Monday, January 2"), len(dayLogs), formatDuration(total))
	if len(dayLogs) == 0 {
		fmt.Fprintln(view, "  no logs on this day")
	}
	for _, log := range dayLogs {
		span := ""
		if log.StartTime != nil && log.EndTime != nil {
			span = fmt.Sprintf(" (%s-%s)", log.StartTime.Format("15:04"), log.EndTime.Format("15:04"))
		}
		fmt.Fprintf(view, "  %s | %s%s\n", formatDuration(log.DurationMinutes), log.Description, span)
	}

	fmt.Fprintln(view, "\nRecent:")
	for _, log := range recentLogs(logs) {
		fmt.Fprintln(view, "  "+formatLogSummary(log))
	}
}

// currentLogsDate is the logs view's date filter, defaulting to today.
func (u *UI) currentLogsDate() time.Time {
	if u.logsDate.IsZero() {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return u.logsDate
}

func (u *UI) shiftLogsDate(days int) {
	u.logsDate = u.currentLogsDate().AddDate(0, 0, days)
}

func (u *UI) renderWFH(view *gocui.View) {
	view.Clear()
	if len(u.wfhRequests) == 0 {
		fmt.Fprint(view, "No work-from-home requests")
		return
	}
	for _, request := range u.wfhRequests {
		fmt.Fprintf(view, "%s to %s | %s | %s\n", request.StartDate.Format("2006-01-02"), request.EndDate.Format("2006-01-02"), request.Status, request.Reason)
	}
}

func (u *UI) renderApprovals(view *gocui.View) {
	view.Clear()
	if len(u.approvals) == 0 {
		fmt.Fprint(view, "No pending approvals")
		return
	}
	for _, approval := range u.approvals {
		fmt.Fprintf(view, "%s | %s | %s\n", approval.Title, approval.RequestedBy, approval.Status)
	}
}

func (u *UI) visibleTasks() []model.Task {
	user := u.state.User()
	userID := ""
	if user != nil {
		userID = user.ID
	}
	return filterTasks(u.state.Tasks(), u.filter, userID)
}

// loadView records the new view and kicks its fetch off the main loop. The
// generation token makes a late response from a previous view a no-op.
func (u *UI) loadView(view state.ViewID) {
	u.state.SetCurrentView(view)
	gen := u.state.BeginLoad()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		switch view {
		case state.ViewKanban:
			var data state.KanbanData
			if data, err = u.loader.FetchKanban(ctx); err == nil {
				u.loader.ApplyKanban(gen, data)
			}
		case state.ViewCalendar:
			var data state.CalendarData
			if data, err = u.loader.FetchCalendar(ctx); err == nil {
				u.loader.ApplyCalendar(gen, data)
			}
		case state.ViewTaskLogs:
			var logs []model.TaskLog
			if logs, err = u.loader.FetchTaskLogs(ctx); err == nil {
				u.loader.ApplyTaskLogs(gen, logs)
			}
		case state.ViewWFH:
			var requests []model.WFHRequest
			if requests, err = u.loader.WFHRequests(ctx); err == nil {
				u.gui.Update(func(*gocui.Gui) error {
					if u.state.Generation() == gen {
						u.wfhRequests = requests
					}
					return nil
				})
			}
		case state.ViewApprovals:
			var pending []model.Approval
			if pending, err = u.loader.Approvals(ctx); err == nil {
				u.gui.Update(func(*gocui.Gui) error {
					if u.state.Generation() == gen {
						u.approvals = pending
					}
					return nil
				})
			}
		default:
			var data state.DashboardData
			if data, err = u.loader.FetchDashboard(ctx); err == nil {
				u.loader.ApplyDashboard(gen, data)
			}
		}
		if err != nil {
			u.setStatusAsync(err.Error())
		}
	}()
}

func (u *UI) setStatusAsync(message string) {
	u.gui.Update(func(*gocui.Gui) error {
		u.status = message
		return nil
	})
}

func (u *UI) switchViewKey(view state.ViewID) func(*gocui.Gui, *gocui.View) error {
	return func(gui *gocui.Gui, _ *gocui.View) error {
		if u.inputActive() {
			return nil
		}
		user := u.state.User()
		if user == nil {
			return nil
		}
		if view == state.ViewApprovals && !user.Role.Manager() {
			u.status = "approvals are for HOD and Super Admin"
			return nil
		}
		if view == state.ViewWFH && user.Role == model.RoleSuperAdmin {
			u.status = "Super Admin has no WFH view"
			return nil
		}
		u.status = ""
		u.loadView(view)
		return nil
	}
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !u.session.Authenticated() {
		return nil
	}
	u.status = ""
	u.loadView(u.state.CurrentView())
	return nil
}

func (u *UI) toggleAttendance(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.session.Authenticated() {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		checkedIn, err := u.loader.ToggleAttendance(ctx)
		if err != nil {
			u.setStatusAsync(err.Error())
			return
		}
		if checkedIn {
			u.setStatusAsync("checked in")
		} else {
			u.setStatusAsync("checked out")
		}
	}()
	return nil
}

func (u *UI) cycleFilter(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.state.CurrentView() != state.ViewKanban {
		return nil
	}
	user := u.state.User()
	canAssign := user != nil && user.Role.CanAssignTasks()
	u.filter = nextTaskFilter(u.filter, canAssign)
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.state.CurrentView() {
	case state.ViewKanban:
		columns := u.kanbanColumns()
		if u.kanbanSelect[u.kanbanFocus] < len(columns[u.kanbanFocus])-1 {
			u.kanbanSelect[u.kanbanFocus]++
		}
	case state.ViewCalendar:
		u.shiftSelectedDate(7)
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.state.CurrentView() {
	case state.ViewKanban:
		if u.kanbanSelect[u.kanbanFocus] > 0 {
			u.kanbanSelect[u.kanbanFocus]--
		}
	case state.ViewCalendar:
		u.shiftSelectedDate(-7)
	}
	return nil
}

func (u *UI) moveLeft(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.state.CurrentView() {
	case state.ViewKanban:
		if u.kanbanFocus > 0 {
			u.kanbanFocus--
		}
	case state.ViewCalendar:
		u.shiftSelectedDate(-1)
	case state.ViewTaskLogs:
		u.shiftLogsDate(-1)
	}
	return nil
}

func (u *UI) moveRight(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.state.CurrentView() {
	case state.ViewKanban:
		if u.kanbanFocus < 2 {
			u.kanbanFocus++
		}
	case state.ViewCalendar:
		u.shiftSelectedDate(1)
	case state.ViewTaskLogs:
		u.shiftLogsDate(1)
	}
	return nil
}

func (u *UI) shiftSelectedDate(days int) {
	selected := u.state.SelectedDate()
	var next time.Time
	if selected == nil {
		month := u.state.CalendarMonth()
		now := time.Now()
		if month.Year() == now.Year() && month.Month() == now.Month() {
			next = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			next = month
		}
	} else {
		next = selected.AddDate(0, 0, days)
	}
	u.state.SetSelectedDate(&next)
}

func (u *UI) kanbanColumns() [3][]model.Task {
	columns := groupTasksByStatus(u.visibleTasks())
	return [3][]model.Task{columns.ToDo, columns.InProgress, columns.Done}
}

func (u *UI) selectedKanbanTask() *model.Task {
	columns := u.kanbanColumns()
	list := columns[u.kanbanFocus]
	index := u.kanbanSelect[u.kanbanFocus]
	if index >= 0 && index < len(list) {
		task := list[index]
		return &task
	}
	return nil
}

func (u *UI) moveTaskLeft(gui *gocui.Gui, _ *gocui.View) error {
	return u.moveSelectedTask(-1)
}

func (u *UI) moveTaskRight(gui *gocui.Gui, _ *gocui.View) error {
	return u.moveSelectedTask(1)
}

func (u *UI) moveSelectedTask(delta int) error {
	if u.inputActive() || u.state.CurrentView() != state.ViewKanban {
		return nil
	}
	task := u.selectedKanbanTask()
	if task == nil {
		return nil
	}
	target := u.kanbanFocus + delta
	if target < 0 || target >= len(kanbanOrder) {
		return nil
	}
	taskID := task.ID
	status := kanbanOrder[target]
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := u.loader.MoveTask(ctx, taskID, status); err != nil {
			u.setStatusAsync(err.Error())
		}
	}()
	return nil
}

func (u *UI) prevMonth(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftMonth(-1)
}

func (u *UI) nextMonth(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftMonth(1)
}

func (u *UI) shiftMonth(months int) error {
	if u.inputActive() || u.state.CurrentView() != state.ViewCalendar {
		return nil
	}
	u.state.ShiftCalendarMonth(months)
	u.state.SetSelectedDate(nil)
	return nil
}

// cycleEmployee advances the calendar's employee selector through the
// department roster. Manager-only.
func (u *UI) cycleEmployee(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.state.CurrentView() != state.ViewCalendar {
		return nil
	}
	user := u.state.User()
	if user == nil || !user.Role.Manager() {
		return nil
	}
	users := sortedUsers(u.state.DepartmentUsers())
	if len(users) == 0 {
		u.status = "no department roster loaded"
		return nil
	}
	current := u.state.SelectedUserID()
	index := 0
	for i, candidate := range users {
		if candidate.ID == current {
			index = (i + 1) % len(users)
			break
		}
	}
	u.state.SetSelectedUserID(users[index].ID)
	u.status = "calendar: " + users[index].Name
	u.loadView(state.ViewCalendar)
	return nil
}

func (u *UI) openLoginForm() {
	u.form = &formState{kind: formLogin, fields: buildLoginFields()}
}

func (u *UI) openTaskForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.session.Authenticated() {
		return nil
	}
	user := u.state.User()
	if user == nil || !user.Role.CanAssignTasks() {
		u.status = "only HOD and Super Admin can create tasks"
		return nil
	}
	u.form = &formState{
		kind:            formTask,
		fields:          buildTaskFields(),
		chosenAssignees: make(map[string]struct{}),
	}
	return nil
}

func (u *UI) openLogForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.session.Authenticated() {
		return nil
	}
	date := time.Now()
	switch u.state.CurrentView() {
	case state.ViewCalendar:
		if selected := u.state.SelectedDate(); selected != nil {
			date = *selected
		}
	case state.ViewTaskLogs:
		date = u.currentLogsDate()
	}
	u.form = &formState{kind: formLog, fields: buildLogFields(date)}
	return nil
}

func (u *UI) submitLogin(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.form.kind != formLogin {
		return nil
	}
	email, password, err := parseLoginFields(u.form.fields)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = "signing in..."
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := u.session.Login(ctx, email, password); err != nil {
			u.setStatusAsync(err.Error())
			return
		}
		u.gui.Update(func(*gocui.Gui) error {
			u.state.SetUser(u.session.User())
			u.form = nil
			u.status = ""
			return nil
		})
		u.loadView(state.ViewDashboard)
	}()
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	switch u.form.kind {
	case formTask:
		assignees := make([]string, 0, len(u.form.chosenAssignees))
		for id := range u.form.chosenAssignees {
			assignees = append(assignees, id)
		}
		input, err := parseTaskFields(u.form.fields, assignees)
		if err != nil {
			u.status = err.Error()
			return nil
		}
		u.form = nil
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			if err := u.loader.CreateTask(ctx, input); err != nil {
				u.setStatusAsync(err.Error())
				return
			}
			u.setStatusAsync("task created")
		}()
	case formLog:
		input, err := parseLogFields(u.form.fields)
		if err != nil {
			u.status = err.Error()
			return nil
		}
		u.form = nil
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			if err := u.loader.CreateTaskLog(ctx, input); err != nil {
				u.setStatusAsync(err.Error())
				return
			}
			u.setStatusAsync("log recorded")
		}()
	}
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.form.kind == formLogin {
		return nil
	}
	u.form = nil
	return nil
}

func (u *UI) logout(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.session.Authenticated() {
		return nil
	}
	if err := u.session.Logout(); err != nil {
		u.status = err.Error()
		return nil
	}
	u.state.Reset()
	u.wfhRequests = nil
	u.approvals = nil
	u.filter = filterAll
	u.logsDate = time.Time{}
	u.status = ""
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := u.loader.ClearSnapshot(ctx); err != nil {
			u.setStatusAsync(err.Error())
		}
	}()
	u.openLoginForm()
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui, name, title string) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(10, max(len(u.form.fields)+2, 4))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(name, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = title
	view.Wrap = true
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(name)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if field.Masked {
			value = strings.Repeat("*", len([]rune(value)))
		}
		if u.form.kind == formTask && index == taskFieldAssignees {
			value = u.assigneeFieldValue()
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, value)
	}
	field := u.form.fields[u.form.index]
	value := field.Value
	if field.Masked {
		value = strings.Repeat("*", len([]rune(value)))
	}
	label := field.Label + ": "
	view.SetCursor(len([]rune(label))+len([]rune(value))+2, u.form.index)
}

func (u *UI) assigneeFieldValue() string {
	users := sortedUsers(u.state.DepartmentUsers())
	chosen := make([]string, 0, len(u.form.chosenAssignees))
	for _, candidate := range users {
		if _, ok := u.form.chosenAssignees[candidate.ID]; ok {
			chosen = append(chosen, candidate.Name)
		}
	}
	value := strings.Join(chosen, ", ")
	if len(users) > 0 && u.form.index == taskFieldAssignees {
		index := u.form.assigneeIndex
		if index >= len(users) {
			index = len(users) - 1
		}
		value = fmt.Sprintf("%s [pick: %s]", value, users[index].Name)
	}
	return value
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if ui.form.kind == formTask && ui.form.index == taskFieldPriority {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = nextPriority(field.Value)
		case gocui.KeyArrowLeft:
			field.Value = prevPriority(field.Value)
		}
		ui.renderForm(view)
		return true
	}

	if ui.form.kind == formTask && ui.form.index == taskFieldAssignees {
		users := sortedUsers(ui.state.DepartmentUsers())
		switch key {
		case gocui.KeyArrowRight:
			ui.form.assigneeIndex = min(ui.form.assigneeIndex+1, max(len(users)-1, 0))
		case gocui.KeyArrowLeft:
			ui.form.assigneeIndex = max(ui.form.assigneeIndex-1, 0)
		case gocui.KeySpace:
			if ui.form.assigneeIndex < len(users) {
				id := users[ui.form.assigneeIndex].ID
				if _, ok := ui.form.chosenAssignees[id]; ok {
					delete(ui.form.chosenAssignees, id)
				} else {
					ui.form.chosenAssignees[id] = struct{}{}
				}
			}
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Help"
	view.Wrap = true
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func helpText() string {
	return strings.Join([]string{
		"Views:",
		"  1 Dashboard | 2 Kanban | 3 Calendar | 4 Task Performed",
		"  5 Work From Home | 6 Approvals (HOD/Super Admin)",
		"",
		"Kanban:",
		"  h or left/right arrows switch column | j/k move selection",
		"  < > move task to the previous/next column",
		"  f cycle filter (all / my tasks / assigned by me)",
		"",
		"Calendar:",
		"  [ ] previous/next month | arrows move day",
		"  u cycle employee (HOD/Super Admin)",
		"",
		"Actions:",
		"  t check in/out | n new task | l new log | r reload",
		"  o logout | ? help | esc/q close help | q quit",
	}, "\n")
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.form != nil {
		return nil
	}
	return gocui.ErrQuit
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}

func pad(s string, width int) string {
	clipped := clip(s, width-1)
	padding := width - len([]rune(clipped))
	if padding < 0 {
		padding = 0
	}
	return clipped + strings.Repeat(" ", padding)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
