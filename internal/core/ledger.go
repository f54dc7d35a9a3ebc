package core

// DayGroups holds transactions grouped by date. Dates keep the order in
// which they were first seen and records keep their insertion order.
type DayGroups struct {
	days  []string
	byDay map[string][]Transaction
}

func NewDayGroups() *DayGroups {
	return &DayGroups{byDay: make(map[string][]Transaction)}
}

// Add appends t to the bucket of its date.
func (g *DayGroups) Add(t Transaction) {
	day := t.Day()
	if _, ok := g.byDay[day]; !ok {
		g.days = append(g.days, day)
	}
	g.byDay[day] = append(g.byDay[day], t)
}

// Days returns the dates in first-seen order.
func (g *DayGroups) Days() []string {
	return append([]string(nil), g.days...)
}

// Records returns the transactions recorded on day, in insertion order.
func (g *DayGroups) Records(day string) []Transaction {
	return append([]Transaction(nil), g.byDay[day]...)
}

// Len returns the number of dates.
func (g *DayGroups) Len() int {
	return len(g.days)
}

// Count returns the number of transactions across all dates.
func (g *DayGroups) Count() int {
	n := 0
	for _, day := range g.days {
		n += len(g.byDay[day])
	}
	return n
}

// Groups returns the buckets in order for rendering.
func (g *DayGroups) Groups() []DayGroup {
	out := make([]DayGroup, 0, len(g.days))
	for _, day := range g.days {
		out = append(out, DayGroup{Date: day, Transactions: g.Records(day)})
	}
	return out
}

// Balance folds every transaction into a running total: credits add,
// debits subtract, any other kind is ignored.
func Balance(g *DayGroups) float64 {
	balance := 0.0
	if g == nil {
		return balance
	}
	for _, day := range g.days {
		for _, t := range g.byDay[day] {
			balance += t.Signed()
		}
	}
	return balance
}

// ExpenseBook maps a date to the amount spent on it. Setting a date twice
// keeps the later amount; the date stays where it was first inserted.
type ExpenseBook struct {
	dates   []string
	amounts map[string]float64
}

func NewExpenseBook() *ExpenseBook {
	return &ExpenseBook{amounts: make(map[string]float64)}
}

func (b *ExpenseBook) Set(date string, amount float64) {
	if _, ok := b.amounts[date]; !ok {
		b.dates = append(b.dates, date)
	}
	b.amounts[date] = amount
}

func (b *ExpenseBook) Get(date string) (float64, bool) {
	v, ok := b.amounts[date]
	return v, ok
}

func (b *ExpenseBook) Dates() []string {
	return append([]string(nil), b.dates...)
}

func (b *ExpenseBook) Len() int {
	return len(b.dates)
}

// Entries returns one Expense per date, in order.
func (b *ExpenseBook) Entries() []Expense {
	out := make([]Expense, 0, len(b.dates))
	for _, d := range b.dates {
		out = append(out, Expense{Date: d, AmountSpent: b.amounts[d]})
	}
	return out
}

// Total sums the amount of every date.
func (b *ExpenseBook) Total() float64 {
	total := 0.0
	if b == nil {
		return total
	}
	for _, d := range b.dates {
		total += b.amounts[d]
	}
	return total
}
