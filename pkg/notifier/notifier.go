// Package notifier contains the core domain types for the campus notification service.
package notifier

// Section identifies one of the known notice-board sections.
type Section string

// Known sections, in the order they are reported.
const (
	SectionAnnouncements Section = "Latest Announcements"
	SectionExams         Section = "Exam Notifications"
	SectionOffice        Section = "Office Notifications"
	SectionScholarships  Section = "Scholarship Section"
	SectionFormats       Section = "Application Formats"
	SectionCultural      Section = "Cultural Events"
	SectionTechClubs     Section = "Technical Clubs"
	SectionIEEECSI       Section = "IEEE & CSI"
)

// Sections returns the full section schema in declared order.
// Delivery walks sections in this order so message ordering stays deterministic.
func Sections() []Section {
	return []Section{
		SectionAnnouncements,
		SectionExams,
		SectionOffice,
		SectionScholarships,
		SectionFormats,
		SectionCultural,
		SectionTechClubs,
		SectionIEEECSI,
	}
}

// Item is one discovered notice. Date and Author are set only for
// announcement-section items; both are set or both are empty.
type Item struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Date   string `json:"date,omitempty"`
	Author string `json:"author,omitempty"`
}

// Equal reports structural equality over all fields. This is the identity
// used for diffing: any field change makes an item "new".
func (it Item) Equal(other Item) bool {
	return it == other
}

// Snapshot maps every known section to its items in document order.
// A Snapshot always carries every section from the schema, possibly empty.
type Snapshot map[Section][]Item

// NewSnapshot returns a snapshot with every known section present and empty.
func NewSnapshot() Snapshot {
	s := make(Snapshot, len(Sections()))
	for _, sec := range Sections() {
		s[sec] = nil
	}
	return s
}

// Total counts items across all sections.
func (s Snapshot) Total() int {
	n := 0
	for _, items := range s {
		n += len(items)
	}
	return n
}
