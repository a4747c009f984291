// Package catalog is the read-only registry of exercises, workout templates
// and experience levels.
package catalog

import "github.com/claude/cirqulofit/internal/models"

var exercises = []models.Exercise{
	{
		ID:           "cardio-warmup",
		Name:         "Cardio Leve",
		Description:  "Aquecimento cardiovascular",
		MuscleGroups: []string{"cardio"},
		Equipment:    "Esteira/Bicicleta/Elíptico",
		Instructions: []string{
			"Mantenha um ritmo confortável",
			"Foque na respiração",
			"Não force muito no início",
		},
	},
	{
		ID:           "squat",
		Name:         "Agachamento",
		Description:  "Exercício para quadríceps e glúteos",
		MuscleGroups: []string{"quadríceps", "glúteos"},
		Equipment:    "Peso corporal ou Smith",
		Instructions: []string{
			"Pés na largura dos ombros",
			"Desça até 90 graus",
			"Mantenha o peito erguido",
			"Subida controlada",
		},
	},
	{
		ID:           "bench-press",
		Name:         "Supino Reto",
		Description:  "Exercício para peito, tríceps e ombros",
		MuscleGroups: []string{"peito", "tríceps", "ombros"},
		Equipment:    "Barra ou Halteres",
		Instructions: []string{
			"Deite no banco com os pés no chão",
			"Segure a barra com pegada média",
			"Desça controladamente até o peito",
			"Empurre para cima com força",
		},
	},
	{
		ID:           "row",
		Name:         "Remada Baixa",
		Description:  "Exercício para costas e bíceps",
		MuscleGroups: []string{"costas", "bíceps"},
		Equipment:    "Máquina ou Barra",
		Instructions: []string{
			"Sente-se com as pernas flexionadas",
			"Puxe o cabo em direção ao abdômen",
			"Mantenha as costas retas",
			"Contraia as escápulas",
		},
	},
	{
		ID:           "shoulder-press",
		Name:         "Desenvolvimento de Ombros",
		Description:  "Exercício para ombros e trapézio",
		MuscleGroups: []string{"ombros", "trapézio"},
		Equipment:    "Halteres ou Smith",
		Instructions: []string{
			"Sente-se com as costas apoiadas",
			"Segure os halteres na altura dos ombros",
			"Empurre para cima até estender os braços",
			"Desça controladamente",
		},
	},
	{
		ID:           "lat-pulldown",
		Name:         "Puxada na Polia Alta",
		Description:  "Exercício para dorsal e bíceps",
		MuscleGroups: []string{"dorsal", "bíceps"},
		Equipment:    "Polia Alta",
		Instructions: []string{
			"Sente-se com as pernas fixas",
			"Puxe a barra em direção ao peito",
			"Mantenha o tronco ereto",
			"Contraia as costas",
		},
	},
	{
		ID:           "leg-curl",
		Name:         "Mesa Flexora",
		Description:  "Exercício para posterior de coxa e glúteo",
		MuscleGroups: []string{"posterior de coxa", "glúteos"},
		Equipment:    "Mesa Flexora",
		Instructions: []string{
			"Deite-se na máquina com as pernas fixas",
			"Flexione as pernas contraindo o posterior",
			"Mantenha o movimento controlado",
			"Retorne à posição inicial",
		},
	},
	{
		ID:           "plank",
		Name:         "Prancha",
		Description:  "Exercício isométrico para abdômen",
		MuscleGroups: []string{"abdômen", "core"},
		Equipment:    "Peso corporal",
		Instructions: []string{
			"Apoie-se nos antebraços e pés",
			"Mantenha o corpo em linha reta",
			"Contraia o abdômen",
			"Respire normalmente",
		},
	},
	{
		ID:           "crunch",
		Name:         "Crunch",
		Description:  "Exercício para abdômen",
		MuscleGroups: []string{"abdômen"},
		Equipment:    "Colchonete ou Banco",
		Instructions: []string{
			"Deite-se com os joelhos flexionados",
			"Mãos atrás da cabeça",
			"Levante o tronco contraindo o abdômen",
			"Desça controladamente",
		},
	},
}

// straightSets builds n identical incomplete sets with a rest hint.
func straightSets(n, reps, rest int) []models.WorkoutSet {
	sets := make([]models.WorkoutSet, n)
	for i := range sets {
		r := rest
		sets[i] = models.WorkoutSet{Reps: reps, RestTime: &r}
	}
	return sets
}

func lift(ex models.Exercise, sets, reps, rest int) models.WorkoutExercise {
	return models.WorkoutExercise{
		Exercise:   ex,
		Sets:       straightSets(sets, reps, rest),
		TargetReps: reps,
		TargetSets: sets,
		RestTime:   rest,
	}
}

var easyWorkout = models.Workout{
	ID:                "easy-fullbody",
	Name:              "Fullbody Easy",
	Description:       "Treino completo para iniciantes - 3x por semana",
	Difficulty:        models.DifficultyEasy,
	Level:             1,
	EstimatedDuration: 60,
	Exercises: []models.WorkoutExercise{
		{
			Exercise:   exercises[0],
			Sets:       []models.WorkoutSet{{Reps: 5}},
			TargetReps: 5,
			TargetSets: 1,
			RestTime:   0,
		},
		lift(exercises[1], 3, 10, 60),
		lift(exercises[2], 3, 10, 60),
		lift(exercises[3], 3, 10, 60),
		lift(exercises[4], 3, 10, 60),
		lift(exercises[5], 3, 10, 60),
		lift(exercises[6], 3, 10, 60),
		lift(exercises[7], 3, 20, 60),
		lift(exercises[8], 3, 15, 60),
	},
}

// Levels 2 and 3 still point at the easy template until medium and hard
// templates are authored.
var levels = map[int]models.Level{
	1: {
		Number:             1,
		Name:               "Iniciante",
		RequiredExperience: 0,
		Description:        "Primeiros passos na academia",
		Color:              "#4CAF50",
		Workout:            easyWorkout,
	},
	2: {
		Number:             2,
		Name:               "Aprendiz",
		RequiredExperience: 100,
		Description:        "Já está pegando o ritmo!",
		Color:              "#2196F3",
		Workout:            easyWorkout,
	},
	3: {
		Number:             3,
		Name:               "Intermediário",
		RequiredExperience: 300,
		Description:        "Hora de aumentar a intensidade",
		Color:              "#FF9800",
		Workout:            easyWorkout,
	},
}

// Exercises returns a copy of every registered exercise.
func Exercises() []models.Exercise {
	out := make([]models.Exercise, len(exercises))
	for i, e := range exercises {
		out[i] = e.Clone()
	}
	return out
}

// ExerciseByID looks up a single exercise.
func ExerciseByID(id string) (models.Exercise, bool) {
	for _, e := range exercises {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return models.Exercise{}, false
}

// EasyWorkout returns a copy of the default template.
func EasyWorkout() models.Workout {
	return easyWorkout.Clone()
}

// TemplateForLevel returns the template registered for level, falling back to
// the easy template when the level has none.
func TemplateForLevel(level int) models.Workout {
	if l, ok := levels[level]; ok {
		return l.Workout.Clone()
	}
	return easyWorkout.Clone()
}

// LevelInfo returns the named tier for a level number.
func LevelInfo(level int) (models.Level, bool) {
	l, ok := levels[level]
	if !ok {
		return models.Level{}, false
	}
	l.Workout = l.Workout.Clone()
	return l, true
}

// LevelName is the display name for any level; levels above the highest
// registered tier share its name.
func LevelName(level int) string {
	switch {
	case level >= 3:
		return levels[3].Name
	case level >= 2:
		return levels[2].Name
	default:
		return levels[1].Name
	}
}

// Levels returns all registered tiers ordered by number.
func Levels() []models.Level {
	out := make([]models.Level, 0, len(levels))
	for n := 1; n <= len(levels); n++ {
		l, ok := LevelInfo(n)
		if ok {
			out = append(out, l)
		}
	}
	return out
}
