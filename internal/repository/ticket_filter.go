package repository

type TicketFilter struct {
	Q          string
	Status     string
	Priority   string
	Category   string
	CreatedBy  string
	AssignedTo string
	Limit      int
	Offset     int
}

type UserFilter struct {
	Q      string
	Role   string
	Limit  int
	Offset int
}
