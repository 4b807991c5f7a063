package search

// The mapping tables below are the filter contracts of each listing.
// Column names refer to the annotated subquery each repository builds,
// so computed columns (owner reprs, contract fields, tags_repr) filter
// exactly like stored ones.

// ForestMapping is the filter contract of forest listings
var ForestMapping = Mapping{
	"internal_id":              {Columns: []string{"internal_id"}, Kind: Substring},
	"cadastral__municipality":  {Columns: []string{"municipality"}, Kind: Substring},
	"cadastral__sector":        {Columns: []string{"sector"}, Kind: Substring},
	"land_attributes__地番本番": {Columns: []string{"land_attributes->>'地番本番'"}, Kind: Substring},
	"land_attributes__地番支番": {Columns: []string{"land_attributes->>'地番支番'"}, Kind: Substring},
	"owner__name_kanji":        {Columns: []string{"owner_name_kanji"}, Kind: TokenAll},
	"owner__name_kana":         {Columns: []string{"owner_name_kana"}, Kind: TokenAll},
	"contract_type":            {Columns: []string{"contract_type"}, Kind: Substring},
	"contract_status":          {Columns: []string{"contract_status"}, Kind: Substring},
	"contract_start_date":      {Columns: []string{"contract_start_date"}, Kind: Equality},
	"contract_end_date":        {Columns: []string{"contract_end_date"}, Kind: Equality},
	"fsc_status":               {Columns: []string{"fsc_status"}, Kind: Substring},
	"fsc_start_date":           {Columns: []string{"fsc_start_date"}, Kind: Equality},
	"tags":                     {Columns: []string{"tags_repr"}, Kind: Substring},
}

// CustomerMapping is the filter contract of customer listings
var CustomerMapping = Mapping{
	"internal_id":    {Columns: []string{"internal_id"}, Kind: Substring},
	"business_id":    {Columns: []string{"business_id"}, Kind: Substring},
	"fullname_kanji": {Columns: []string{"fullname_kanji"}, Kind: TokenAll},
	"fullname_kana":  {Columns: []string{"fullname_kana"}, Kind: TokenAll},
	"postal_code":    {Columns: []string{"postal_code"}, Kind: Substring},
	"prefecture":     {Columns: []string{"prefecture"}, Kind: Substring},
	"municipality":   {Columns: []string{"municipality"}, Kind: Substring},
	"address":        {Columns: []string{"address"}, Kind: Substring},
	"telephone":      {Columns: []string{"telephone"}, Kind: Substring},
	"mobilephone":    {Columns: []string{"mobilephone"}, Kind: Substring},
	"email":          {Columns: []string{"email"}, Kind: Substring},
	"representative": {Columns: []string{"representative"}, Kind: Substring},
	"tags":           {Columns: []string{"tags_repr"}, Kind: Substring},
}

// ArchiveMapping is the filter contract of consultation record listings
var ArchiveMapping = Mapping{
	"id":                 {Columns: []string{"id::text"}, Kind: Substring},
	"title":              {Columns: []string{"title"}, Kind: Substring},
	"content":            {Columns: []string{"content"}, Kind: Substring},
	"archive_date":       {Columns: []string{"archive_date::text"}, Kind: Substring},
	"author":             {Columns: []string{"author_name"}, Kind: TokenAll},
	"associated_forest":  {Columns: []string{"associated_forest_repr"}, Kind: Substring},
	"our_participants":   {Columns: []string{"our_participants_repr"}, Kind: Substring},
	"their_participants": {Columns: []string{"their_participants_repr"}, Kind: Substring},
	// a record's tags and the tags of the forests it concerns both count
	"tags": {Columns: []string{"tags_repr", "forest_tags_repr"}, Kind: Substring},
}

// PostalHistoryMapping is the filter contract of mailing record listings
var PostalHistoryMapping = Mapping{
	"id":                {Columns: []string{"id::text"}, Kind: Substring},
	"title":             {Columns: []string{"title"}, Kind: Substring},
	"content":           {Columns: []string{"content"}, Kind: Substring},
	"sent_date":         {Columns: []string{"sent_date::text"}, Kind: Substring},
	"author":            {Columns: []string{"author_name"}, Kind: TokenAll},
	"associated_forest": {Columns: []string{"associated_forest_repr"}, Kind: Substring},
	"recipients":        {Columns: []string{"recipients_repr"}, Kind: Substring},
	"senders":           {Columns: []string{"senders_repr"}, Kind: Substring},
	"tags":              {Columns: []string{"tags_repr"}, Kind: Substring},
}
