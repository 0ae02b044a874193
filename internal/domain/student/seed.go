package student

// SeedStudents возвращает фиксированный начальный набор каталога.
// Хранилище записывает его при первом чтении пустой коллекции.
// Каждый вызов возвращает новый срез, поэтому вызывающий может его менять.
func SeedStudents() []Student {
	return []Student{
		{
			NRP:         "123456678",
			Name:        "Angela Wong",
			Email:       "wong@gmail.com",
			Program:     ProgramDSAI,
			AboutMe:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Ut justo massa, commodo eu finibus at, pulvinar quis mi. Aenean auctor iaculis sem nec condimentum. Quisque consequat sapien ut turpis tincidunt, at vulputate turpis congue. Duis bibendum congue auctor.",
			CourseList:  "Machine Learning, Deep Learning, Statistics",
			Experiences: "Intern at Google, Research Assistant at Ubaya",
			PhotoURL:    "https://picsum.photos/id/1027/200/200",
		},
		{
			NRP:         "45235236",
			Name:        "Dean Kirkwood",
			Email:       "dean@mail.ubaya.ac.id",
			Program:     ProgramGD,
			AboutMe:     "Passionate game developer with a focus on immersive 3D experiences. I love exploring new technologies and building interactive worlds.",
			CourseList:  "3D Modeling, Unity Engine, Physics Simulation",
			Experiences: "Winner of Global Game Jam 2023, Freelance Game Designer",
			PhotoURL:    "https://picsum.photos/id/1005/200/200",
		},
		{
			NRP:         "38469843",
			Name:        "Monica",
			Email:       "monica.mon@ubaya.net",
			Program:     ProgramDMT,
			AboutMe:     "Creative digital media technologist exploring the intersection of design and code.",
			CourseList:  "UI/UX Design, Front-end Dev, Audio Engineering",
			Experiences: "Graphic Designer at Student Union, Media Intern",
			PhotoURL:    "https://picsum.photos/id/1011/200/200",
		},
		{
			NRP:         "59928341",
			Name:        "Julian Casablancas",
			Email:       "jules@strokes.com",
			Program:     ProgramNCS,
			AboutMe:     "Cybersecurity enthusiast focused on network defense and cloud security systems.",
			CourseList:  "Network Security, Penetration Testing, Cloud Arch",
			Experiences: "Security Consultant for Local Startup",
			PhotoURL:    "https://picsum.photos/id/1012/200/200",
		},
	}
}
