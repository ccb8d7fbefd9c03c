package layout

import "jsa/api/internal/jsa"

var labels = map[string][3]string{
	"docTitle":     {"Job Safety Analysis", "Analyse de sécurité des tâches", "تحليل السلامة الوظيفية"},
	"company":      {"Company", "Société", "الشركة"},
	"project":      {"Project", "Projet", "المشروع"},
	"workOrder":    {"Work order", "Ordre de travail", "أمر العمل"},
	"date":         {"Date", "Date", "التاريخ"},
	"jobTitle":     {"Job title", "Intitulé de la tâche", "عنوان المهمة"},
	"location":     {"Location", "Site", "الموقع"},
	"teamLeader":   {"Team leader", "Chef d'équipe", "رئيس الفريق"},
	"tools":        {"Tools & equipment", "Outils et équipements", "الأدوات والمعدات"},
	"moreTools":    {"more not shown", "autres non affichés", "أخرى غير معروضة"},
	"teamMembers":  {"Team members", "Membres de l'équipe", "أعضاء الفريق"},
	"noTeam":       {"No team members listed", "Aucun membre listé", "لا يوجد أعضاء"},
	"initialRisk":  {"Initial risk", "Risque initial", "الخطر الأولي"},
	"residualRisk": {"Residual risk", "Risque résiduel", "الخطر المتبقي"},
	"likelihood":   {"Likelihood", "Probabilité", "الاحتمالية"},
	"severity":     {"Severity", "Gravité", "الخطورة"},
	"hazards":      {"Hazards", "Dangers", "المخاطر"},
	"controls":     {"Control measures", "Mesures de maîtrise", "إجراءات التحكم"},
	"steps":        {"Detailed work steps", "Étapes détaillées", "خطوات العمل التفصيلية"},
	"stepsCont":    {"Work steps (continued)", "Étapes (suite)", "خطوات العمل (تابع)"},
	"activity":     {"Activity step / procedure", "Étape / procédure", "الخطوة / الإجراء"},
	"hazardRef":    {"Hazard reference", "Danger associé", "الخطر المرتبط"},
	"check":        {"Check", "Vérif.", "تحقق"},
	"moreSteps":    {"further steps not printed", "étapes supplémentaires non imprimées", "خطوات إضافية غير مطبوعة"},
	"emergency":    {"Emergency contacts", "Contacts d'urgence", "أرقام الطوارئ"},
	"medical":      {"Medical / ambulance", "Médical / ambulance", "الإسعاف"},
	"fire":         {"Fire department", "Pompiers", "الإطفاء"},
	"musterPoint":  {"Muster point", "Point de rassemblement", "نقطة التجمع"},
	"permits":      {"Permit status", "Permis requis", "التصاريح المطلوبة"},
	"creator":      {"Prepared by", "Préparé par", "أعده"},
	"supervisor":   {"Approved by", "Approuvé par", "وافق عليه"},
	"manager":      {"Validated by", "Validé par", "صادق عليه"},
	"reference":    {"Ref", "Réf", "المرجع"},
	"page":         {"Page", "Page", "صفحة"},
}

// FireNumber is printed in every emergency block.
const FireNumber = "15 / 150"

const blank = "________________"

func label(lang jsa.Language, key string) string {
	row, ok := labels[key]
	if !ok {
		return key
	}
	switch lang {
	case jsa.LangFR:
		return row[1]
	case jsa.LangAR:
		return row[2]
	default:
		return row[0]
	}
}
