package service

import "axs-learn/internal/domain"

// BuildQuizStats resume los resultados (ordenados del mas reciente al mas
// viejo) en las estadisticas historicas del usuario.
func BuildQuizStats(results []domain.QuizResult) domain.QuizStats {
	stats := domain.QuizStats{
		TotalQuizzes:  len(results),
		RecentResults: results,
	}
	if len(results) > 5 {
		stats.RecentResults = results[:5]
	}

	var sum float64
	for _, r := range results {
		sum += r.Score
		if r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
		stats.TotalTimeSpent += r.TimeSpent
	}
	if len(results) > 0 {
		stats.AverageScore = sum / float64(len(results))
	}
	return stats
}
