package readmodel

// Views return copies; callers may keep or modify them freely.

func (p *Projection) Categories() []string {
	return append(make([]string, 0, len(p.categories)), p.categories...)
}

func (p *Projection) Notes() []Note {
	out := make([]Note, 0, len(p.noteOrder))
	for _, guid := range p.noteOrder {
		out = append(out, *p.notes[guid])
	}
	return out
}

func (p *Projection) Todos() []Todo {
	out := make([]Todo, 0, len(p.todoOrder))
	for _, guid := range p.todoOrder {
		out = append(out, cloneTodo(p.todos[guid]))
	}
	return out
}

// OpenTodos returns the todos not yet complete, in creation order.
func (p *Projection) OpenTodos() []Todo {
	out := []Todo{}
	for _, guid := range p.todoOrder {
		if todo := p.todos[guid]; !todo.Complete {
			out = append(out, cloneTodo(todo))
		}
	}
	return out
}

func (p *Projection) Tasks() []Task {
	return append(make([]Task, 0, len(p.tasks)), p.tasks...)
}

// TasksFor returns the sessions logged against one todo.
func (p *Projection) TasksFor(guid string) []Task {
	out := []Task{}
	for _, task := range p.tasks {
		if task.GUID == guid {
			out = append(out, task)
		}
	}
	return out
}

// Timeline returns the GUIDs of notes, todos and tasks in arrival order.
func (p *Projection) Timeline() []string {
	out := make([]string, 0, len(p.timeline))
	for _, entry := range p.timeline {
		out = append(out, entry.GUID)
	}
	return out
}

func (p *Projection) Entries() []Entry {
	return append(make([]Entry, 0, len(p.timeline)), p.timeline...)
}

func (p *Projection) Lookup(guid string) (Entity, bool) {
	if note, ok := p.notes[guid]; ok {
		n := *note
		return Entity{Kind: KindNote, Note: &n}, true
	}
	if todo, ok := p.todos[guid]; ok {
		t := cloneTodo(todo)
		return Entity{Kind: KindTodo, Todo: &t, Tasks: p.TasksFor(guid)}, true
	}
	return Entity{}, false
}

func (p *Projection) Snapshot() Snapshot {
	return Snapshot{
		Categories: p.Categories(),
		Notes:      p.Notes(),
		Todos:      p.Todos(),
		Tasks:      p.Tasks(),
		Timeline:   p.Entries(),
	}
}

func (p *Projection) Stats() Stats {
	open := 0
	for _, todo := range p.todos {
		if !todo.Complete {
			open++
		}
	}
	return Stats{
		Categories: len(p.categories),
		Notes:      len(p.notes),
		Todos:      len(p.todos),
		OpenTodos:  open,
		Tasks:      len(p.tasks),
	}
}

func cloneTodo(todo *Todo) Todo {
	out := *todo
	out.DueDate = copyTime(todo.DueDate)
	out.TimeCompleted = copyTime(todo.TimeCompleted)
	return out
}
