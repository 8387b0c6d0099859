package catalog

// Sample returns the built-in demonstration catalog. Codes are 4-digit
// unit groups of the national occupation classification.
func Sample() []Record {
	return []Record{
		{
			ID:          "job_001",
			Title:       "Software Developer",
			Description: "Develops software applications and systems using programming languages like JavaScript, Python, Java. Works on frontend, backend, or full-stack development.",
			Code:        "2512",
			Category:    "Technology",
			Skills:      []string{"Programming", "Problem Solving", "Software Design", "Testing"},
			TextContent: "software developer programming coding javascript python java web development applications systems",
		},
		{
			ID:          "job_002",
			Title:       "Painter",
			Description: "Applies paint, stain, and coatings to walls, buildings, bridges, and other structures. Works with brushes, rollers, and spray equipment.",
			Code:        "7131",
			Category:    "Construction & Trades",
			Skills:      []string{"Painting", "Color Theory", "Surface Preparation", "Equipment Operation"},
			TextContent: "painter painting paint walls buildings brushes rollers spray coating stain",
		},
		{
			ID:          "job_003",
			Title:       "Graphic Designer",
			Description: "Creates visual concepts and designs for print and digital media. Uses software like Photoshop, Illustrator, and InDesign.",
			Code:        "2166",
			Category:    "Creative Arts",
			Skills:      []string{"Design", "Creativity", "Adobe Creative Suite", "Typography"},
			TextContent: "graphic designer design visual concepts photoshop illustrator creative art typography",
		},
		{
			ID:          "job_004",
			Title:       "Teacher",
			Description: "Educates students in various subjects, creates lesson plans, and assesses student progress. Works in schools, colleges, or training centers.",
			Code:        "2330",
			Category:    "Education",
			Skills:      []string{"Teaching", "Communication", "Curriculum Development", "Student Assessment"},
			TextContent: "teacher education teaching students lesson plans curriculum school college training",
		},
		{
			ID:          "job_005",
			Title:       "Chef",
			Description: "Prepares and cooks food in restaurants, hotels, or catering services. Plans menus, manages kitchen staff, and ensures food quality.",
			Code:        "3434",
			Category:    "Food Service",
			Skills:      []string{"Cooking", "Menu Planning", "Food Safety", "Kitchen Management"},
			TextContent: "chef cooking food preparation restaurant kitchen menu planning culinary",
		},
		{
			ID:          "job_006",
			Title:       "Nurse",
			Description: "Provides medical care and support to patients in hospitals, clinics, or healthcare facilities. Administers medications and monitors patient health.",
			Code:        "2221",
			Category:    "Healthcare",
			Skills:      []string{"Patient Care", "Medical Knowledge", "Communication", "Critical Thinking"},
			TextContent: "nurse nursing healthcare medical care patients hospital clinic medications health",
		},
		{
			ID:          "job_007",
			Title:       "Marketing Manager",
			Description: "Develops and implements marketing strategies to promote products or services. Manages advertising campaigns and analyzes market trends.",
			Code:        "1221",
			Category:    "Business & Marketing",
			Skills:      []string{"Marketing Strategy", "Campaign Management", "Market Analysis", "Communication"},
			TextContent: "marketing manager advertising campaigns promotion market analysis business strategy",
		},
		{
			ID:          "job_008",
			Title:       "Electrician",
			Description: "Installs, maintains, and repairs electrical systems in homes, businesses, and industrial facilities. Works with wiring, circuits, and electrical equipment.",
			Code:        "7411",
			Category:    "Construction & Trades",
			Skills:      []string{"Electrical Systems", "Wiring", "Safety Protocols", "Problem Solving"},
			TextContent: "electrician electrical systems wiring circuits installation repair maintenance power",
		},
		{
			ID:          "job_009",
			Title:       "Data Scientist",
			Description: "Analyzes complex data to extract insights and patterns. Uses statistical methods, machine learning, and programming to solve business problems.",
			Code:        "2120",
			Category:    "Technology",
			Skills:      []string{"Data Analysis", "Machine Learning", "Statistics", "Python", "R"},
			TextContent: "data scientist analytics statistics machine learning python analysis insights patterns",
		},
		{
			ID:          "job_010",
			Title:       "Carpenter",
			Description: "Constructs, repairs, and installs building frameworks and structures made of wood and other materials. Works on residential and commercial projects.",
			Code:        "7115",
			Category:    "Construction & Trades",
			Skills:      []string{"Woodworking", "Construction", "Blueprint Reading", "Tool Operation"},
			TextContent: "carpenter construction woodworking building frameworks structures residential commercial tools",
		},
	}
}
