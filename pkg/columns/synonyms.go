package columns

// Field identifies a canonical task field.
type Field string

const (
	ProjectName    Field = "projectName"
	Pages          Field = "pages"
	Rate           Field = "rate"
	WorkStatus     Field = "workStatus"
	PaymentStatus  Field = "paymentStatus"
	Notes          Field = "notes"
	AcceptedDate   Field = "acceptedDate"
	SubmissionDate Field = "submissionDate"
)

// Synonym lists the header labels accepted for one field, in priority order.
type Synonym struct {
	Field   Field
	Headers []string
}

// Synonyms is the header table used by Map. Fields are resolved top to
// bottom and a column claimed by an earlier field is not offered to later ones.
var Synonyms = []Synonym{
	{ProjectName, []string{"Project Name", "Project", "Task", "Task Name", "Title", "Name"}},
	{Pages, []string{"Pages", "Page Count", "Pages Count", "No of Pages", "Count", "Quantity", "Qty"}},
	{Rate, []string{"Rate", "Rate Per Page", "Price", "Price Per Page", "Unit Price", "Cost"}},
	{WorkStatus, []string{"Work Status", "Status", "Progress", "State"}},
	{PaymentStatus, []string{"Payment Status", "Payment", "Paid", "Billing Status"}},
	{Notes, []string{"Notes", "Note", "Description", "Comments", "Remarks"}},
	{AcceptedDate, []string{"Accepted Date", "Start Date", "Date Accepted", "Created", "Created Time", "Start", "Date"}},
	{SubmissionDate, []string{"Submission Date", "Due Date", "Deadline", "Due", "End Date", "End"}},
}

// Fields returns the canonical fields in table order.
func Fields() []Field {
	out := make([]Field, len(Synonyms))
	for i, s := range Synonyms {
		out[i] = s.Field
	}
	return out
}
