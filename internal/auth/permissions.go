package auth

const (
	PermCreateEvent = "CREATE_EVENT"
	PermEditEvent   = "EDIT_EVENT"
	PermDeleteEvent = "DELETE_EVENT"
	PermViewEvent   = "VIEW_EVENT"
	PermCreateTask  = "CREATE_TASK"
	PermEditTask    = "EDIT_TASK"
	PermDeleteTask  = "DELETE_TASK"
	PermViewTask    = "VIEW_TASK"
	PermAssignTask  = "ASSIGN_TASK"
	PermManageUsers = "MANAGE_USERS"
)

const (
	RoleAdmin        = "Admin"
	RoleEventManager = "Event Manager"
	RoleTaskManager  = "Task Manager"
	RoleViewer       = "Viewer"
)

// BuiltinPermissions is the catalog every deployment starts with.
var BuiltinPermissions = []string{
	PermCreateEvent,
	PermEditEvent,
	PermDeleteEvent,
	PermViewEvent,
	PermCreateTask,
	PermEditTask,
	PermDeleteTask,
	PermViewTask,
	PermAssignTask,
	PermManageUsers,
}

// RoleDefinition names a builtin role and the permissions it grants.
type RoleDefinition struct {
	Name        string
	Permissions []string
}

// BuiltinRoles maps the default roles onto the catalog.
var BuiltinRoles = []RoleDefinition{
	{Name: RoleAdmin, Permissions: BuiltinPermissions},
	{Name: RoleEventManager, Permissions: []string{
		PermCreateEvent, PermEditEvent, PermDeleteEvent, PermViewEvent,
		PermCreateTask, PermEditTask, PermDeleteTask, PermViewTask,
	}},
	{Name: RoleTaskManager, Permissions: []string{
		PermCreateTask, PermEditTask, PermDeleteTask, PermViewTask, PermAssignTask,
	}},
	{Name: RoleViewer, Permissions: []string{PermViewEvent, PermViewTask}},
}
